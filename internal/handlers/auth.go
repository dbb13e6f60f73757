package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/metrics"
	"github.com/alextreichler/storefront/internal/shop"
	"github.com/google/uuid"
)

type AuthHandler struct {
	*Base
	Carts *cart.Store
}

func (h *AuthHandler) SignupGet(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup.html", nil)
}

func (h *AuthHandler) SignupPost(w http.ResponseWriter, r *http.Request) {
	_, err := h.Shop.Auth.Signup(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.fail(w, r, err, "/signup")
		return
	}
	h.flashRedirect(w, r, flashSuccess, "Account created. Please login.", "/login")
}

func (h *AuthHandler) LoginGet(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", map[string]interface{}{
		"Next": r.URL.Query().Get("next"),
	})
}

func (h *AuthHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	next := r.FormValue("next")
	user, err := h.Shop.Auth.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		metrics.RecordLogin(false)
		target := "/login"
		if next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		h.fail(w, r, err, target)
		return
	}
	metrics.RecordLogin(true)

	session := h.session(r)
	if old, ok := sessionIdentity(session); ok && old.SID != "" {
		h.Carts.Drop(old.SID)
	}
	session.Values[keyUserID] = user.ID
	session.Values[keyUsername] = user.Username
	session.Values[keySID] = uuid.NewString()
	session.AddFlash(FlashMessage{Type: flashSuccess, Message: "Logged in successfully."})

	// CRITICAL: Save session and check for errors
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.Info("Login successful", "user_id", user.ID)
	http.Redirect(w, r, nextOrRoot(next), http.StatusSeeOther)
}

// Logout destroys the session identity and the session's cart.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if id, ok := sessionIdentity(session); ok {
		h.Carts.Drop(id.SID)
		slog.Info("Logout", "user_id", id.UserID)
	}
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.AddFlash(FlashMessage{Type: flashInfo, Message: "Logged out."})
	h.redirect(w, r, session, "/")
}

// RequireAuth lets the request through only with a session identity, which it
// places in the request context. Otherwise it redirects to the login page,
// remembering the requested path.
func (h *AuthHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := h.session(r)
		id, ok := sessionIdentity(session)
		if !ok {
			slog.Debug("RequireAuth: no identity, redirecting to login", "path", r.URL.Path)
			session.AddFlash(FlashMessage{Type: flashWarning, Message: shop.Message(shop.ErrAuthRequired)})
			h.redirect(w, r, session, "/login?next="+url.QueryEscape(r.URL.RequestURI()))
			return
		}
		if id.SID == "" {
			id.SID = uuid.NewString()
			session.Values[keySID] = id.SID
			if err := session.Save(r, w); err != nil {
				slog.Error("Failed to save session", "error", err)
			}
		}
		next(w, r.WithContext(withIdentity(r.Context(), id)))
	}
}

// RequireAdmin implies RequireAuth and re-reads the admin flag from the store
// on every request rather than trusting the session.
func (h *AuthHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		isAdmin, err := h.Shop.Auth.IsAdmin(r.Context(), id.UserID)
		if err != nil {
			h.fail(w, r, err, "/")
			return
		}
		if !isAdmin {
			slog.Warn("RequireAdmin: forbidden", "user_id", id.UserID, "path", r.URL.Path)
			h.fail(w, r, shop.ErrForbidden, "/")
			return
		}
		next(w, r)
	})
}
