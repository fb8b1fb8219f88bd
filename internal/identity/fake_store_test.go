package identity

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/breachlens/breachlens-api/internal/models"
)

// fakeUserRepo is an in-memory stand-in for the Postgres user repository.
// It mirrors the real repository's error surface: not-found errors wrap
// sql.ErrNoRows and uniqueness violations surface as wrapped *pq.Error
// values with code 23505.
type fakeUserRepo struct {
	mu     sync.Mutex
	seq    int64
	users  map[uuid.UUID]*models.User
	vaults map[uuid.UUID]*models.Vault

	lookupErr error // injected store failure for lookups
	createErr error // injected failure for the next CreateWithVault
	writes    int32 // counts mutations (link + create)

	// hideUntilCreate simulates a lost creation race: lookups miss until
	// the first CreateWithVault attempt, which fails with a uniqueness
	// violation and then reveals the concurrently inserted rows.
	hideUntilCreate bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		seq:    1000000000,
		users:  make(map[uuid.UUID]*models.User),
		vaults: make(map[uuid.UUID]*models.Vault),
	}
}

func notFound() error {
	return fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func uniqueViolation(constraint string) error {
	return fmt.Errorf("failed to create user: %w", &pq.Error{Code: "23505", Constraint: constraint})
}

func (f *fakeUserRepo) NextUserNumber(ctx context.Context) (int64, error) {
	return atomic.AddInt64(&f.seq, 1), nil
}

func (f *fakeUserRepo) CreateWithVault(ctx context.Context, user *models.User, vault *models.Vault) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}

	if f.hideUntilCreate {
		f.hideUntilCreate = false
		return uniqueViolation("users_google_id_key")
	}

	for _, u := range f.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
		if u.GoogleID != nil && user.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return uniqueViolation("users_google_id_key")
		}
		if u.UserID == user.UserID {
			return uniqueViolation("users_user_id_key")
		}
	}

	stored := *user
	f.users[user.ID] = &stored
	vault.UserID = user.ID
	storedVault := *vault
	f.vaults[user.ID] = &storedVault
	atomic.AddInt32(&f.writes, 1)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, notFound()
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.hideUntilCreate {
		return nil, notFound()
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, notFound()
}

func (f *fakeUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.hideUntilCreate {
		return nil, notFound()
	}
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, notFound()
}

func (f *fakeUserRepo) LinkGoogle(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	stored.GoogleID = user.GoogleID
	stored.ProfilePicture = user.ProfilePicture
	stored.AuthProvider = user.AuthProvider
	atomic.AddInt32(&f.writes, 1)
	return nil
}

func (f *fakeUserRepo) writeCount() int {
	return int(atomic.LoadInt32(&f.writes))
}
