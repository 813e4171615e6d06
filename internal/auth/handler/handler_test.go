package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"authgate/internal/auth/models"
	"authgate/internal/auth/session"
	"authgate/internal/identity"
	"authgate/internal/platform/config"
	"authgate/internal/ratelimit/lockout"
	dErrors "authgate/pkg/domain-errors"
)

// stubService plays back canned service answers.
type stubService struct {
	signUpErr    error
	signInID     identity.Identity
	signInErr    error
	federatedID  identity.Identity
	federatedErr error
	signOutErr   error

	signOutUserID string
}

func (s *stubService) SignUp(context.Context, models.Credentials) error { return s.signUpErr }

func (s *stubService) SignInPassword(context.Context, models.Credentials) (identity.Identity, error) {
	return s.signInID, s.signInErr
}

func (s *stubService) SignInFederated(context.Context) (identity.Identity, error) {
	return s.federatedID, s.federatedErr
}

func (s *stubService) SignOut(_ context.Context, userID string) error {
	s.signOutUserID = userID
	return s.signOutErr
}

func newTestRouter(svc Service) http.Handler {
	sessions := session.NewManager(config.Cookie{Name: "session", MaxAge: time.Hour}, false)
	h := New(svc, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Route("/api", h.Register)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSignUpEndpoint(t *testing.T) {
	t.Run("success has no cookie", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := doJSON(t, router, http.MethodPost, "/api/sign-up", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "success", decodeBody(t, w)["status"])
		require.Nil(t, sessionCookie(w), "registration must not set a session cookie")
	})

	t.Run("undecodable body is a 400", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := doJSON(t, router, http.MethodPost, "/api/sign-up", `{"email":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "bad_request", decodeBody(t, w)["error"])
	})

	t.Run("field-attributed provider failure", func(t *testing.T) {
		router := newTestRouter(&stubService{
			signUpErr: dErrors.New(dErrors.CodeBadRequest, "account exists").WithField("email"),
		})

		w := doJSON(t, router, http.MethodPost, "/api/sign-up", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		require.Equal(t, "email", body["field"])
		require.Equal(t, "account exists", body["error_description"])
	})
}

func TestSignInEndpoint(t *testing.T) {
	t.Run("success sets the session cookie", func(t *testing.T) {
		router := newTestRouter(&stubService{signInID: identity.Identity{UserID: "user-1"}})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusOK, w.Code)

		c := sessionCookie(w)
		require.NotNil(t, c)
		require.Equal(t, "user-1", c.Value)
		require.True(t, c.HttpOnly)
		require.Equal(t, int(time.Hour.Seconds()), c.MaxAge)
	})

	t.Run("failure sets no cookie", func(t *testing.T) {
		router := newTestRouter(&stubService{
			signInErr: dErrors.New(dErrors.CodeUnauthorized, "bad credentials").WithField("password"),
		})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Nil(t, sessionCookie(w))

		body := decodeBody(t, w)
		require.Equal(t, "password", body["field"])
		require.Equal(t, "bad credentials", body["error_description"])
	})

	t.Run("lockout carries Retry-After", func(t *testing.T) {
		router := newTestRouter(&stubService{
			signInErr: dErrors.Wrap(
				&lockout.LockedError{RetryAfter: 90 * time.Second},
				dErrors.CodeRateLimited,
				"too many failed sign-in attempts",
			),
		})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "91", w.Header().Get("Retry-After"))
		require.Nil(t, sessionCookie(w))
	})

	t.Run("internal failure hides the description", func(t *testing.T) {
		router := newTestRouter(&stubService{
			signInErr: dErrors.New(dErrors.CodeInternal, "provider at 10.0.0.5 unreachable"),
		})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		body := decodeBody(t, w)
		require.Equal(t, "internal_error", body["error"])
		require.NotContains(t, w.Body.String(), "10.0.0.5")
	})
}

func TestSignInGoogleEndpoint(t *testing.T) {
	t.Run("success sets the session cookie without a body", func(t *testing.T) {
		router := newTestRouter(&stubService{federatedID: identity.Identity{UserID: "user-9"}})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in/google", "")
		require.Equal(t, http.StatusOK, w.Code)

		c := sessionCookie(w)
		require.NotNil(t, c)
		require.Equal(t, "user-9", c.Value)
	})

	t.Run("failure stays generic", func(t *testing.T) {
		router := newTestRouter(&stubService{
			federatedErr: dErrors.New(dErrors.CodeUnauthorized, "popup closed"),
		})

		w := doJSON(t, router, http.MethodPost, "/api/sign-in/google", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		body := decodeBody(t, w)
		require.NotContains(t, body, "field")
		require.Nil(t, sessionCookie(w))
	})
}

func TestSignOutEndpoint(t *testing.T) {
	t.Run("success clears the cookie", func(t *testing.T) {
		svc := &stubService{}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/sign-out", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "user-1"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "user-1", svc.signOutUserID)

		c := sessionCookie(w)
		require.NotNil(t, c, "expected a cookie-clear instruction")
		require.Negative(t, c.MaxAge)
		require.Empty(t, c.Value)
	})

	t.Run("works without a prior session", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := doJSON(t, router, http.MethodPost, "/api/sign-out", "")
		require.Equal(t, http.StatusOK, w.Code)

		c := sessionCookie(w)
		require.NotNil(t, c, "clear instruction is sent regardless of prior cookie")
		require.Negative(t, c.MaxAge)
	})

	t.Run("failed revoke leaves the cookie untouched", func(t *testing.T) {
		router := newTestRouter(&stubService{
			signOutErr: dErrors.New(dErrors.CodeInternal, "revoke unconfirmed"),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/sign-out", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "user-1"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Nil(t, sessionCookie(w), "no Set-Cookie when the revoke did not confirm")
	})
}
