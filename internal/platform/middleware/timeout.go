package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout caps the request context deadline. Handlers and collaborators that
// honor the context abort once the budget is spent; the provider client does.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
