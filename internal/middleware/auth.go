package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/request"
	"github.com/breachlens/breachlens-api/internal/session"
)

// SessionAuthenticator validates a bearer token down to a user id
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// UserGetter loads a user by internal id
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth creates authentication middleware that validates session tokens.
// The resolved user is attached to the request context; handlers read it
// back with request.UserFromContext.
func Auth(sessions SessionAuthenticator, users UserGetter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			userID, err := sessions.Authenticate(ctx, parts[1])
			if err != nil {
				if errors.Is(err, session.ErrInvalidSession) {
					respondError(w, http.StatusUnauthorized, "Invalid or expired session")
					return
				}
				logger.Error("session_validation_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Session store error")
				return
			}

			user, err := users.GetByID(ctx, userID)
			if err != nil {
				// A session for a deleted account is invalid, but a store
				// failure must not masquerade as an auth failure.
				if errors.Is(err, sql.ErrNoRows) {
					respondError(w, http.StatusUnauthorized, "Invalid or expired session")
					return
				}
				logger.Error("user_lookup_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
