package shop

import "errors"

// Error kinds. Every error returned by this package for a user mistake wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrAuth         = errors.New("invalid credentials")
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrEmptyCart    = errors.New("cart is empty")
)

// Error pairs a kind with the message shown to the user.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// IsUserError reports whether err belongs to the taxonomy above rather than
// being an infrastructure failure.
func IsUserError(err error) bool {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrAuth, ErrAuthRequired, ErrForbidden, ErrNotFound, ErrEmptyCart} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Message returns the user-visible text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Please log in to continue."
	case errors.Is(err, ErrForbidden):
		return "Admin access required."
	case errors.Is(err, ErrEmptyCart):
		return "Cart empty."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	}
	return "Something went wrong. Please try again."
}
