package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alextreichler/storefront/internal/shop"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

const sessionName = "shop-session"

// Session keys.
const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keySID      = "sid" // keys the server-side cart
)

// Base carries the dependencies shared by every handler group.
type Base struct {
	Shop         *shop.Service
	SessionStore sessions.Store
	Templates    *TemplateCache
}

// Identity is the logged-in user as recorded in the session.
type Identity struct {
	UserID   int64
	Username string
	SID      string
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func (b *Base) session(r *http.Request) *sessions.Session {
	session, err := b.SessionStore.Get(r, sessionName)
	if err != nil {
		// A cookie signed with an old key: start over with a fresh session.
		slog.Debug("Discarding unreadable session", "error", err)
	}
	return session
}

func sessionIdentity(session *sessions.Session) (Identity, bool) {
	userID, ok := session.Values[keyUserID].(int64)
	if !ok {
		return Identity{}, false
	}
	username, _ := session.Values[keyUsername].(string)
	sid, _ := session.Values[keySID].(string)
	return Identity{UserID: userID, Username: username, SID: sid}, true
}

// redirect saves the session (persisting any flash) and sends a 303.
func (b *Base) redirect(w http.ResponseWriter, r *http.Request, session *sessions.Session, target string) {
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (b *Base) flashRedirect(w http.ResponseWriter, r *http.Request, kind, msg, target string) {
	session := b.session(r)
	session.AddFlash(FlashMessage{Type: kind, Message: msg})
	b.redirect(w, r, session, target)
}

// fail recovers an error at the request boundary: taxonomy errors become a
// flash with their message, anything else is logged and reported generically.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	if !shop.IsUserError(err) {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	b.flashRedirect(w, r, flashDanger, shop.Message(err), target)
}

func (b *Base) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	tmpl := b.Templates.Get(name)
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session := b.session(r)
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Flashes"] = GetFlash(session)
	data["CsrfField"] = csrf.TemplateField(r)
	if id, ok := sessionIdentity(session); ok {
		data["User"] = &id
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("Failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	session.Save(r, w) // Save session to clear flashes
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (b *Base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// localPath reduces target to its path and query so that next= and Referer
// cannot send the user off-site.
func localPath(target string) (string, bool) {
	if target == "" {
		return "", false
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	p := u.RequestURI()
	if u.Path == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "", false
	}
	return p, true
}

func nextOrRoot(target string) string {
	if p, ok := localPath(target); ok {
		return p
	}
	return "/"
}
