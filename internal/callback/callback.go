// Package callback completes the browser side of the OAuth handoff. The
// server redirects to the frontend with either a token and user payload or
// an error reason; this handler parses that URL and routes the outcome
// through pluggable storage, notification, and navigation seams.
package callback

import (
	"encoding/json"
	"net/url"

	"go.uber.org/zap"
)

// Storage persists small string values keyed by name, in the manner of
// browser local storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Notifier surfaces outcome messages to the user
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator moves the client to another route
type Navigator interface {
	NavigateTo(path string)
}

const (
	// StorageKeyUser holds the persisted session payload
	StorageKeyUser = "user"
	// StorageKeyRole holds the authorization role
	StorageKeyRole = "role"
	// StorageKeyRedirect remembers where the user was headed before the
	// OAuth round trip
	StorageKeyRedirect = "preOAuthRedirect"
)

// Handler processes OAuth completion redirects
type Handler struct {
	storage   Storage
	notifier  Notifier
	navigator Navigator
	logger    *zap.Logger
}

// NewHandler creates a callback handler
func NewHandler(storage Storage, notifier Notifier, navigator Navigator, zapLogger *zap.Logger) *Handler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Handler{
		storage:   storage,
		notifier:  notifier,
		navigator: navigator,
		logger:    zapLogger,
	}
}

// Handle parses a completion redirect URL and finishes the login. Every
// failure mode lands back on the login route with a notification; only a
// well-formed token and user payload produce a session.
func (h *Handler) Handle(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		h.fail("Authentication failed. Please try again.", "unparsable callback url")
		return
	}
	q := u.Query()

	if reason := q.Get("error"); reason != "" {
		h.fail("Authentication failed: "+reasonText(reason), "provider reported "+reason)
		return
	}

	token := q.Get("token")
	rawUser := q.Get("user")
	if token == "" || rawUser == "" {
		h.fail("Authentication failed. Please try again.", "token or user missing from callback")
		return
	}

	var user map[string]any
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		h.fail("Authentication failed. Please try again.", "user payload is not valid json")
		return
	}

	user["accessToken"] = token
	persisted, err := json.Marshal(user)
	if err != nil {
		h.fail("Authentication failed. Please try again.", "user payload could not be serialized")
		return
	}

	h.storage.Set(StorageKeyUser, string(persisted))
	h.storage.Set(StorageKeyRole, "user")
	h.notifier.Success("Signed in successfully.")

	target := "/"
	if remembered, ok := h.storage.Get(StorageKeyRedirect); ok && remembered != "" {
		target = remembered
	}
	h.storage.Delete(StorageKeyRedirect)
	h.navigator.NavigateTo(target)
}

func (h *Handler) fail(message, detail string) {
	h.logger.Warn("oauth_callback_rejected", zap.String("detail", detail))
	h.notifier.Error(message)
	h.navigator.NavigateTo("/login")
}

func reasonText(code string) string {
	switch code {
	case "provider_denied":
		return "the sign-in was cancelled."
	case "state_mismatch":
		return "the sign-in request could not be verified."
	case "provider_unavailable":
		return "sign-in is temporarily unavailable."
	default:
		return "please try again."
	}
}

// MemoryStorage is an in-memory Storage, used by tests and by the local
// development shell.
type MemoryStorage struct {
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present
func (m *MemoryStorage) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key
func (m *MemoryStorage) Set(key, value string) {
	m.values[key] = value
}

// Delete removes key
func (m *MemoryStorage) Delete(key string) {
	delete(m.values, key)
}
