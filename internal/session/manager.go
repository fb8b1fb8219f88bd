// Package session issues and validates authenticated sessions. A session
// serializes a principal down to its internal user id: the bearer token is
// a signed JWT whose jti names a server-side Redis record, so tokens can be
// revoked before their signature expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is the default session lifetime
	DefaultTTL = 24 * time.Hour

	tokenIssuer    = "breachlens"
	redisKeyPrefix = "session:"
)

// ErrInvalidSession indicates a token that is expired, revoked, forged, or
// otherwise not backed by a live session record.
var ErrInvalidSession = errors.New("invalid session")

// Manager issues and validates session tokens
type Manager struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

// NewManager creates a session manager backed by Redis
func NewManager(client *redis.Client, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{client: client, secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue serializes the principal into a new session: a server-side record
// keyed by a fresh session id, and a signed bearer token referencing it.
// Only the user id goes into the token; never credentials or vault data.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	sessionID := uuid.NewString()
	now := time.Now()

	token, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(userID.String()).
		JwtID(sessionID).
		IssuedAt(now).
		Expiration(now.Add(m.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := m.client.Set(ctx, redisKeyPrefix+sessionID, userID.String(), m.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return string(signed), nil
}

// Authenticate deserializes a bearer token back to the principal's user id.
// The signature, expiry, and the server-side session record must all check
// out; any failure yields ErrInvalidSession.
func (m *Manager) Authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, m.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}

	sessionID := token.JwtID()
	if sessionID == "" {
		return uuid.Nil, ErrInvalidSession
	}

	stored, err := m.client.Get(ctx, redisKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrInvalidSession
		}
		return uuid.Nil, fmt.Errorf("failed to load session: %w", err)
	}
	if stored != token.Subject() {
		return uuid.Nil, ErrInvalidSession
	}

	userID, err := uuid.Parse(stored)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}
	return userID, nil
}

// Destroy revokes the session referenced by the token. Destroying an
// already-dead session is not an error.
func (m *Manager) Destroy(ctx context.Context, tokenString string) error {
	// Signature must verify, but an expired token can still be logged out.
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, m.secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return ErrInvalidSession
	}
	sessionID := token.JwtID()
	if sessionID == "" {
		return ErrInvalidSession
	}
	if err := m.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
