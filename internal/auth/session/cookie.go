// Package session owns the session cookie: the single server-side artifact
// that marks a browser as authenticated.
package session

import (
	"net/http"
	"time"

	"authgate/internal/platform/config"
)

// Manager creates and clears the session cookie. The cookie value is the
// provider-issued user ID and nothing else; it is HttpOnly always and Secure
// outside development, so scripts can never read it and production traffic
// never sends it in the clear.
type Manager struct {
	name   string
	maxAge time.Duration
	secure bool
}

// NewManager builds a Manager from cookie config. secure should be true in
// production only; local development runs without TLS.
func NewManager(cfg config.Cookie, secure bool) *Manager {
	return &Manager{
		name:   cfg.Name,
		maxAge: cfg.MaxAge,
		secure: secure,
	}
}

// Create sets the session cookie for userID. Calling it again for the same
// response simply rewrites the cookie with a fresh lifetime.
func (m *Manager) Create(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    userID,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear instructs the browser to drop the session cookie. Clearing is
// idempotent and never fails: a negative MaxAge removes the cookie whether or
// not it exists.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the user ID carried by the request's session cookie, if any.
func (m *Manager) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
