package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/httputil"
)

// Recovery turns panics into 500 responses so a single bad request cannot
// take the process down. The stack goes to the log, never to the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					httputil.WriteError(w, dErrors.Newf(dErrors.CodeInternal, "panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
