package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis client: %v", err)
		}
	})
	return NewManager(client, "test-secret", time.Hour), mr
}

func TestIssueAndAuthenticate(t *testing.T) {
	m, _ := newTestManager(t)
	userID := uuid.New()

	token, err := m.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	got, err := m.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got != userID {
		t.Errorf("Authenticate() = %s, want %s", got, userID)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "abc123"},
		{"wrong signature", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Authenticate(context.Background(), tt.token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Authenticate(%q) error = %v, want ErrInvalidSession", tt.token, err)
			}
		})
	}
}

func TestAuthenticateAfterDestroy(t *testing.T) {
	m, _ := newTestManager(t)
	userID := uuid.New()

	token, err := m.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := m.Destroy(context.Background(), token); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := m.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Authenticate() after Destroy error = %v, want ErrInvalidSession", err)
	}

	// Destroying again is a no-op, not an error.
	if err := m.Destroy(context.Background(), token); err != nil {
		t.Errorf("second Destroy() error = %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	m, mr := newTestManager(t)
	userID := uuid.New()

	token, err := m.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// The server-side record expires with the configured TTL even if the
	// token signature would still verify.
	mr.FastForward(2 * time.Hour)

	if _, err := m.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Authenticate() after expiry error = %v, want ErrInvalidSession", err)
	}
}

func TestTokensAreOpaqueToOtherSecrets(t *testing.T) {
	m1, _ := newTestManager(t)
	mr2 := miniredis.RunT(t)
	client2 := redis.NewClient(&redis.Options{Addr: mr2.Addr()})
	t.Cleanup(func() {
		_ = client2.Close()
	})
	m2 := NewManager(client2, "different-secret", time.Hour)

	token, err := m1.Issue(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := m2.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("cross-secret Authenticate() error = %v, want ErrInvalidSession", err)
	}
}
