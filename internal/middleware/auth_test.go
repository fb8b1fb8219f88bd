package middleware

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/request"
	"github.com/breachlens/breachlens-api/internal/session"
)

type fakeSessions struct {
	userID uuid.UUID
	err    error
}

func (f *fakeSessions) Authenticate(context.Context, string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.userID, nil
}

type fakeUsers struct {
	user *models.User
	err  error
}

func (f *fakeUsers) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func TestAuth(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := &models.User{ID: userID, UserID: "USER1000000001", Email: "alice@example.com"}

	tests := []struct {
		name       string
		authHeader string
		sessions   *fakeSessions
		users      *fakeUsers
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "valid session",
			authHeader: "Bearer token",
			sessions:   &fakeSessions{userID: userID},
			users:      &fakeUsers{user: user},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			sessions:   &fakeSessions{userID: userID},
			users:      &fakeUsers{user: user},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "Basic abc",
			sessions:   &fakeSessions{userID: userID},
			users:      &fakeUsers{user: user},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid session",
			authHeader: "Bearer token",
			sessions:   &fakeSessions{err: session.ErrInvalidSession},
			users:      &fakeUsers{user: user},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "session store failure is not an auth failure",
			authHeader: "Bearer token",
			sessions:   &fakeSessions{err: fmt.Errorf("redis down")},
			users:      &fakeUsers{user: user},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "deleted account",
			authHeader: "Bearer token",
			sessions:   &fakeSessions{userID: userID},
			users:      &fakeUsers{err: fmt.Errorf("user not found: %w", sql.ErrNoRows)},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user store failure is not an auth failure",
			authHeader: "Bearer token",
			sessions:   &fakeSessions{userID: userID},
			users:      &fakeUsers{err: fmt.Errorf("connection reset")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = request.UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			mw := Auth(tt.sessions, tt.users, zap.NewNop())(next)

			req := httptest.NewRequest("GET", "/api/v1/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantUser && (gotUser == nil || gotUser.ID != userID) {
				t.Error("user was not attached to the request context")
			}
			if !tt.wantUser && gotUser != nil {
				t.Error("handler ran with a user despite failed auth")
			}
		})
	}
}
