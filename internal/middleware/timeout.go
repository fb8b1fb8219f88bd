package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds handler execution when no explicit timeout
// is configured.
const DefaultRequestTimeout = 30 * time.Second

// Timeout deadlines the request context and cuts the response off after the
// given duration. Handlers that honor the context stop early; those that
// don't are fenced by http.TimeoutHandler.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		fenced := http.TimeoutHandler(next, timeout, "Request Timeout")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			fenced.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
