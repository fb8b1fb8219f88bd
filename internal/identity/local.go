package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/vault"
)

// Registration is a local signup request
type Registration struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth time.Time
}

// LocalService registers and authenticates password accounts
type LocalService struct {
	users      database.UserRepositoryInterface
	vaults     *vault.Provisioner
	bcryptCost int
	logger     *zap.Logger
}

// NewLocalService creates a local credential service
func NewLocalService(users database.UserRepositoryInterface, vaults *vault.Provisioner, bcryptCost int, zapLogger *zap.Logger) *LocalService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &LocalService{users: users, vaults: vaults, bcryptCost: bcryptCost, logger: zapLogger}
}

// Register provisions a new local account with its vault. Local accounts
// require both a password and a date of birth.
func (s *LocalService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, reg.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: email lookup: %v", ErrResolutionFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)
	dob := reg.DateOfBirth

	user := &models.User{
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		PasswordHash: &hashStr,
		DateOfBirth:  &dob,
		AuthProvider: models.AuthProviderLocal,
	}

	var lastErr error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		err := provisionAccount(ctx, s.users, s.vaults, user)
		if err == nil {
			s.logger.Info("local_account_registered",
				zap.String("user_id", user.UserID),
				zap.String("email", logger.RedactEmail(user.Email)),
			)
			return user, nil
		}
		if database.IsUniqueViolation(err, "users_email_key") {
			// Concurrent registration with the same email won the race.
			return nil, ErrEmailTaken
		}
		if database.IsUniqueViolation(err, "") {
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	return nil, fmt.Errorf("%w: creation retries exhausted: %v", ErrResolutionFailed, lastErr)
}

// Authenticate verifies a local email/password pair. Provider-only
// accounts (no password hash) always fail the credential check.
func (s *LocalService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: email lookup: %v", ErrResolutionFailed, err)
	}
	if !user.IsLocal() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
