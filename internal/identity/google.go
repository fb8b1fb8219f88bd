package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/vault"
)

// maxResolveAttempts bounds the re-resolve loop when a concurrent request
// wins a uniqueness race during creation.
const maxResolveAttempts = 3

// GoogleStrategy resolves Google OAuth assertions to accounts
type GoogleStrategy struct {
	users  database.UserRepositoryInterface
	vaults *vault.Provisioner
	logger *zap.Logger
}

// NewGoogleStrategy creates a Google resolution strategy
func NewGoogleStrategy(users database.UserRepositoryInterface, vaults *vault.Provisioner, zapLogger *zap.Logger) *GoogleStrategy {
	return &GoogleStrategy{users: users, vaults: vaults, logger: zapLogger}
}

// Provider returns the provider tag this strategy handles
func (s *GoogleStrategy) Provider() models.AuthProvider {
	return models.AuthProviderGoogle
}

// Resolve maps an assertion to exactly one account: matched by subject id
// (no write), linked by email (one update), or created (one transactional
// insert of user plus vault). A uniqueness violation during creation means
// a concurrent request created or linked the same identity first, so the
// whole resolution is retried against the fresh store state.
func (s *GoogleStrategy) Resolve(ctx context.Context, assertion Assertion) (*models.User, Outcome, error) {
	var lastErr error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		user, outcome, err := s.resolveOnce(ctx, assertion)
		if err == nil {
			s.logger.Info("google_identity_resolved",
				zap.String("outcome", outcome.String()),
				zap.String("user_id", user.UserID),
				zap.String("email", logger.RedactEmail(user.Email)),
			)
			return user, outcome, nil
		}
		if database.IsUniqueViolation(err, "") {
			s.logger.Warn("google_identity_create_race_detected",
				zap.Int("attempt", attempt+1),
				zap.String("email", logger.RedactEmail(assertion.Email)),
			)
			lastErr = err
			continue
		}
		return nil, 0, err
	}
	return nil, 0, fmt.Errorf("%w: creation retries exhausted: %v", ErrResolutionFailed, lastErr)
}

func (s *GoogleStrategy) resolveOnce(ctx context.Context, assertion Assertion) (*models.User, Outcome, error) {
	// Fast path: the subject id has been seen before.
	user, err := s.users.GetByGoogleID(ctx, assertion.SubjectID)
	if err == nil {
		return user, OutcomeMatchedSubject, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: subject lookup: %v", ErrResolutionFailed, err)
	}

	// Link path: an account already owns this email (typically a local
	// signup). Attach the Google identity; password and date of birth
	// stay untouched.
	user, err = s.users.GetByEmail(ctx, assertion.Email)
	if err == nil {
		subjectID := assertion.SubjectID
		user.GoogleID = &subjectID
		user.AuthProvider = models.AuthProviderGoogle
		if assertion.PictureURL != "" {
			picture := assertion.PictureURL
			user.ProfilePicture = &picture
		}
		if err := s.users.LinkGoogle(ctx, user); err != nil {
			return nil, 0, err
		}
		return user, OutcomeLinkedEmail, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: email lookup: %v", ErrResolutionFailed, err)
	}

	// Create path: provision a fresh account with its vault. Password and
	// date of birth are intentionally absent for provider accounts.
	subjectID := assertion.SubjectID
	user = &models.User{
		FirstName:    assertion.GivenName,
		LastName:     assertion.FamilyName,
		Email:        assertion.Email,
		GoogleID:     &subjectID,
		AuthProvider: models.AuthProviderGoogle,
	}
	if assertion.PictureURL != "" {
		picture := assertion.PictureURL
		user.ProfilePicture = &picture
	}
	if err := provisionAccount(ctx, s.users, s.vaults, user); err != nil {
		return nil, 0, err
	}
	return user, OutcomeCreated, nil
}
