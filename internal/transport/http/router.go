// Package httptransport assembles the gateway's HTTP surface: the /api auth
// endpoints, operational endpoints, and the static client bundle for
// everything else.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authgate/internal/auth/handler"
	"authgate/internal/platform/metrics"
	"authgate/internal/platform/middleware"
	"authgate/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthChecker is implemented by collaborators that can report liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter wires middleware, the auth API, operational endpoints, and the
// static bundle. checks lists optional collaborators for /healthz by name.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, auth *handler.Handler, staticDir string, checks map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(m))

	r.Route("/api", auth.Register)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(logger, checks))

	// Anything else is the client bundle.
	r.Handle("/*", NewStaticHandler(staticDir))

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports process liveness plus the state of each configured
// collaborator. A degraded collaborator turns the status 503 so load
// balancers can rotate the instance out.
func handleHealth(logger *slog.Logger, checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}

		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		httputil.WriteJSON(w, status, resp)
	}
}
