// Package handler is the HTTP surface of the authentication gateway. It
// decodes request bodies, delegates to the auth service, and owns the one
// transport-level side effect the service cannot: the session cookie.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"authgate/internal/auth/models"
	"authgate/internal/auth/session"
	"authgate/internal/identity"
	"authgate/internal/platform/middleware"
	"authgate/internal/ratelimit/lockout"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/httputil"
)

// Service is what the handler needs from the auth service.
type Service interface {
	SignUp(ctx context.Context, creds models.Credentials) error
	SignInPassword(ctx context.Context, creds models.Credentials) (identity.Identity, error)
	SignInFederated(ctx context.Context) (identity.Identity, error)
	SignOut(ctx context.Context, userID string) error
}

// Handler serves the /api auth endpoints.
type Handler struct {
	svc      Service
	sessions *session.Manager
	logger   *slog.Logger
}

func New(svc Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// Register mounts the auth routes on r. Callers mount this under /api.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sign-up", h.handleSignUp)
	r.Post("/sign-in", h.handleSignIn)
	r.Post("/sign-in/google", h.handleSignInGoogle)
	r.Post("/sign-out", h.handleSignOut)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := h.svc.SignUp(r.Context(), creds); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Registration does not authenticate: success without a cookie.
	httputil.WriteJSON(w, http.StatusOK, models.Success())
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	id, err := h.svc.SignInPassword(r.Context(), creds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sessions.Create(w, id.UserID)
	httputil.WriteJSON(w, http.StatusOK, models.Success())
}

func (h *Handler) handleSignInGoogle(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.SignInFederated(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sessions.Create(w, id.UserID)
	httputil.WriteJSON(w, http.StatusOK, models.Success())
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	// Optimistic: no check that a cookie exists. Revoking an absent session
	// is fine on the provider side and clearing an absent cookie is a no-op.
	userID, _ := h.sessions.Read(r)

	if err := h.svc.SignOut(r.Context(), userID); err != nil {
		// The provider did not confirm the revoke, so the cookie stays.
		h.writeError(w, r, err)
		return
	}

	h.sessions.Clear(w)
	httputil.WriteJSON(w, http.StatusOK, models.Success())
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.logger.WarnContext(r.Context(), "undecodable credentials payload",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return models.Credentials{}, false
	}
	return creds, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var le *lockout.LockedError
	if errors.As(err, &le) {
		w.Header().Set("Retry-After", strconv.Itoa(int(le.RetryAfter.Seconds())+1))
	}

	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), "auth operation failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	httputil.WriteError(w, err)
}
