package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/breachlens/breachlens-api/internal/identity"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/queue"
	"github.com/breachlens/breachlens-api/internal/request"
	"github.com/breachlens/breachlens-api/internal/validation"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthClient abstracts the provider side of the authorization-code flow
type OAuthClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (identity.Assertion, error)
}

// Resolver turns a verified provider assertion into exactly one account
type Resolver interface {
	Resolve(ctx context.Context, assertion identity.Assertion) (*models.User, identity.Outcome, error)
}

// LocalAuth handles email/password registration and sign-in
type LocalAuth interface {
	Register(ctx context.Context, reg identity.Registration) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// SessionStore issues and revokes session tokens
type SessionStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Destroy(ctx context.Context, token string) error
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	oauth       OAuthClient
	resolver    Resolver
	local       LocalAuth
	sessions    SessionStore
	jobQueue    queue.JobQueue
	frontendURL string
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. oauth may be nil when no
// Google provider is configured; the Google routes then answer 503.
func NewAuthHandler(
	oauth OAuthClient,
	resolver Resolver,
	local LocalAuth,
	sessions SessionStore,
	jobQueue queue.JobQueue,
	frontendURL string,
	zapLogger *zap.Logger,
) *AuthHandler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &AuthHandler{
		oauth:       oauth,
		resolver:    resolver,
		local:       local,
		sessions:    sessions,
		jobQueue:    jobQueue,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      zapLogger,
	}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/google", h.GoogleLogin).Methods("GET")
	r.HandleFunc("/google/callback", h.GoogleCallback).Methods("GET")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// RegisterRequest represents a local registration request
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,birth_date"`
}

// LoginRequest represents a local sign-in request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries a fresh session token and its account
type SessionResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// GoogleLogin redirects the browser into the Google consent flow
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Provider Unavailable", "Google sign-in is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback finishes the consent flow: code exchange, profile fetch,
// identity resolution, session issue, then redirect back to the frontend.
// Every failure path redirects with an error code instead of rendering JSON,
// because the caller is a browser mid-flow.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.redirectError(w, r, "provider_unavailable")
		return
	}

	q := r.URL.Query()
	if q.Get("error") != "" {
		h.redirectError(w, r, "provider_denied")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		h.redirectError(w, r, "state_mismatch")
		return
	}
	clearStateCookie(w)

	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, "auth_failed")
		return
	}

	ctx := r.Context()
	token, err := h.oauth.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Warn("oauth_code_exchange_failed", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}

	assertion, err := h.oauth.FetchProfile(ctx, token)
	if err != nil {
		h.logger.Warn("oauth_profile_fetch_failed", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}

	user, outcome, err := h.resolver.Resolve(ctx, assertion)
	if err != nil {
		h.logger.Error("identity_resolution_failed",
			zap.String("email", logger.RedactEmail(assertion.Email)),
			zap.Error(err),
		)
		h.redirectError(w, r, "auth_failed")
		return
	}

	if outcome == identity.OutcomeCreated {
		h.enqueueAccountScan(ctx, user)
	}

	sessionToken, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Error("session_issue_failed", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}

	userJSON, err := json.Marshal(user.Summary())
	if err != nil {
		h.redirectError(w, r, "auth_failed")
		return
	}

	redirect := fmt.Sprintf("%s/oauth/callback?token=%s&user=%s",
		h.frontendURL,
		url.QueryEscape(sessionToken),
		url.QueryEscape(string(userJSON)),
	)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Register creates a local account with a provisioned vault
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Failed", "dateOfBirth must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	user, err := h.local.Register(ctx, identity.Registration{
		FirstName:   validation.SanitizeText(req.FirstName),
		LastName:    validation.SanitizeText(req.LastName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			respondJSONError(w, http.StatusConflict, "Email Taken", "An account with this email already exists")
			return
		}
		h.logger.Error("registration_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Registration Failed", "Could not create the account")
		return
	}

	h.enqueueAccountScan(ctx, user)

	token, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Error("session_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Session Failed", "Account created but sign-in failed; please log in")
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{Token: token, User: user.Summary()})
}

// Login authenticates a local account
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx := r.Context()
	user, err := h.local.Authenticate(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondJSONError(w, http.StatusUnauthorized, "Invalid Credentials", "Email or password is incorrect")
			return
		}
		h.logger.Error("login_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Login Failed", "Could not sign in")
		return
	}

	token, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Error("session_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Session Failed", "Could not sign in")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Token: token, User: user.Summary()})
}

// Logout revokes the caller's session. Revoking an already-dead session
// still answers 200 so logout is idempotent from the client's view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Missing bearer token")
		return
	}

	if err := h.sessions.Destroy(r.Context(), parts[1]); err != nil {
		h.logger.Warn("logout_failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated account's summary
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	respondJSON(w, http.StatusOK, user.Summary())
}

// enqueueAccountScan schedules a breach scan for a fresh account. Scan
// failures never block authentication.
func (h *AuthHandler) enqueueAccountScan(ctx context.Context, user *models.User) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewJob(queue.JobTypeAccountScan, user.ID, user.Email)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("failed_to_enqueue_account_scan",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendURL+"/oauth/callback?error="+url.QueryEscape(code), http.StatusFound)
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
