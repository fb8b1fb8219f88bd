package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/breachlens/breachlens-api/internal/identity"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/queue"
)

type fakeOAuth struct {
	assertion identity.Assertion
	exchErr   error
	fetchErr  error
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeOAuth) ExchangeCode(context.Context, string) (*oauth2.Token, error) {
	if f.exchErr != nil {
		return nil, f.exchErr
	}
	return &oauth2.Token{AccessToken: "access"}, nil
}

func (f *fakeOAuth) FetchProfile(context.Context, *oauth2.Token) (identity.Assertion, error) {
	if f.fetchErr != nil {
		return identity.Assertion{}, f.fetchErr
	}
	return f.assertion, nil
}

type fakeResolver struct {
	user    *models.User
	outcome identity.Outcome
	err     error
}

func (f *fakeResolver) Resolve(context.Context, identity.Assertion) (*models.User, identity.Outcome, error) {
	return f.user, f.outcome, f.err
}

type fakeLocal struct {
	user        *models.User
	registerErr error
	authErr     error
}

func (f *fakeLocal) Register(context.Context, identity.Registration) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.user, nil
}

func (f *fakeLocal) Authenticate(context.Context, string, string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.user, nil
}

type fakeSessionStore struct {
	token     string
	issueErr  error
	destroyed []string
}

func (f *fakeSessionStore) Issue(context.Context, uuid.UUID) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return f.token, nil
}

func (f *fakeSessionStore) Destroy(_ context.Context, token string) error {
	f.destroyed = append(f.destroyed, token)
	return nil
}

type fakeJobQueue struct {
	mu       sync.Mutex
	enqueued []*queue.Job
	err      error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func (f *fakeJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (f *fakeJobQueue) Close() error                      { return nil }
func (f *fakeJobQueue) HealthCheck(context.Context) error { return nil }

type fakeVaultRepo struct {
	vault     *models.Vault
	getErr    error
	updateErr error
	updated   []string
}

func (f *fakeVaultRepo) GetByUserID(context.Context, uuid.UUID) (*models.Vault, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.vault, nil
}

func (f *fakeVaultRepo) UpdatePayload(_ context.Context, _ uuid.UUID, payload string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, payload)
	return nil
}

type fakeReportRepo struct {
	report *models.BreachReport
	err    error
}

func (f *fakeReportRepo) Create(context.Context, *models.BreachReport) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeReportRepo) GetLatestByUserID(context.Context, uuid.UUID) (*models.BreachReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.report == nil {
		return nil, fmt.Errorf("breach report not found: %w", sql.ErrNoRows)
	}
	return f.report, nil
}

func testUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		UserID:       "USER1000000001",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.com",
		AuthProvider: models.AuthProviderGoogle,
	}
}
