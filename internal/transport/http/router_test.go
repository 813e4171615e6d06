package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"authgate/internal/auth/handler"
	"authgate/internal/auth/models"
	"authgate/internal/auth/session"
	"authgate/internal/identity"
	"authgate/internal/platform/config"
)

type stubService struct {
	signInID identity.Identity
}

func (s *stubService) SignUp(context.Context, models.Credentials) error { return nil }

func (s *stubService) SignInPassword(context.Context, models.Credentials) (identity.Identity, error) {
	return s.signInID, nil
}

func (s *stubService) SignInFederated(context.Context) (identity.Identity, error) {
	return s.signInID, nil
}

func (s *stubService) SignOut(context.Context, string) error { return nil }

type stubCheck struct{ err error }

func (c stubCheck) Health(context.Context) error { return c.err }

func newRouter(t *testing.T, checks map[string]HealthChecker) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(config.Cookie{Name: "session", MaxAge: time.Hour}, false)
	auth := handler.New(&stubService{signInID: identity.Identity{UserID: "user-1"}}, sessions, logger)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("ok"), 0o644))

	return NewRouter(logger, nil, auth, dir, checks)
}

func TestRouterRoutesAPIAndStatic(t *testing.T) {
	router := newRouter(t, nil)

	t.Run("api endpoint reachable through the full chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sign-in", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("non-api path serves the bundle", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
	})

	t.Run("unknown api path is a 404, not an asset", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/nope", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("no collaborators configured", func(t *testing.T) {
		router := newRouter(t, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "ok", body["status"])
	})

	t.Run("degraded collaborator turns 503", func(t *testing.T) {
		router := newRouter(t, map[string]HealthChecker{
			"redis":    stubCheck{},
			"postgres": stubCheck{err: errors.New("unreachable")},
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "degraded", body.Status)
		require.Equal(t, "ok", body.Checks["redis"])
		require.Equal(t, "unavailable", body.Checks["postgres"])
	})
}
