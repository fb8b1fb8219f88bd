// Package request carries per-request values: the authenticated user and
// the client address used for rate limiting.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/breachlens/breachlens-api/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContextKey exposes the user key for tests that inject non-user values
func UserContextKey() contextKey { return userContextKey }

// WithUser attaches the authenticated user to the context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil when the request
// was not authenticated or the value has the wrong type.
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}

// ClientIP resolves the originating address, preferring proxy headers. The
// first X-Forwarded-For entry is the original client.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}
