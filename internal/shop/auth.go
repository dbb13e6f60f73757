package shop

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/alextreichler/storefront/internal/models"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	Store    *store.Store
	validate *validator.Validate
}

type credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required"`
}

func (a *Auth) checkCredentials(username, password string) (credentials, error) {
	c := credentials{Username: strings.TrimSpace(username), Password: password}
	// Whitespace-only passwords count as missing, but the password is hashed as typed.
	if err := a.validate.Struct(credentials{Username: c.Username, Password: strings.TrimSpace(password)}); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && vErrs[0].Tag() == "max" {
			return c, newError(ErrValidation, "Username must be at most 64 characters.")
		}
		return c, newError(ErrValidation, "Provide username and password.")
	}
	return c, nil
}

func (a *Auth) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", newError(ErrValidation, "Password must be at most 72 bytes.")
	}
	return string(hashed), err
}

// Signup registers a regular (non-admin) user. It does not log the user in.
func (a *Auth) Signup(ctx context.Context, username, password string) (int64, error) {
	c, err := a.checkCredentials(username, password)
	if err != nil {
		return 0, err
	}
	hashed, err := a.hash(c.Password)
	if err != nil {
		return 0, err
	}

	id, err := a.Store.CreateUser(ctx, c.Username, hashed, false)
	if errors.Is(err, store.ErrConflict) {
		return 0, newError(ErrConflict, "Username already exists.")
	}
	if err != nil {
		return 0, err
	}
	slog.Info("User signed up", "user_id", id, "username", c.Username)
	return id, nil
}

// Login verifies the credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.Store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("Login failed: unknown user", "username", username)
		return nil, newError(ErrAuth, "Invalid credentials.")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		slog.Warn("Login failed: bad password", "user_id", user.ID)
		return nil, newError(ErrAuth, "Invalid credentials.")
	}
	return user, nil
}

// IsAdmin reads the admin flag from the store. A deleted user is not an admin.
func (a *Auth) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := a.Store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// ProvisionAdmin creates an admin account, or promotes the existing user of
// that name without touching its password. It reports whether a user was created.
func (a *Auth) ProvisionAdmin(ctx context.Context, username, password string) (bool, error) {
	c, err := a.checkCredentials(username, password)
	if err != nil {
		return false, err
	}

	existing, err := a.Store.GetUserByUsername(ctx, c.Username)
	switch {
	case err == nil:
		if err := a.Store.SetAdmin(ctx, existing.ID, true); err != nil {
			return false, err
		}
		slog.Info("Promoted user to admin", "user_id", existing.ID)
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	hashed, err := a.hash(c.Password)
	if err != nil {
		return false, err
	}
	id, err := a.Store.CreateUser(ctx, c.Username, hashed, true)
	if err != nil {
		return false, err
	}
	slog.Info("Created admin user", "user_id", id, "username", c.Username)
	return true, nil
}

func (a *Auth) HasAdmin(ctx context.Context) (bool, error) {
	n, err := a.Store.CountAdmins(ctx)
	return n > 0, err
}
