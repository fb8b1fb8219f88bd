package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/models"
)

// UserRepositoryInterface defines the interface for user repository operations
// This interface enables better testability by allowing mock implementations
type UserRepositoryInterface interface {
	NextUserNumber(ctx context.Context) (int64, error)
	CreateWithVault(ctx context.Context, user *models.User, vault *models.Vault) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	LinkGoogle(ctx context.Context, user *models.User) error
}

// VaultRepositoryInterface defines the interface for vault repository operations
type VaultRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Vault, error)
	UpdatePayload(ctx context.Context, userID uuid.UUID, payload string) error
}

// BreachReportRepositoryInterface defines the interface for breach report repository operations
type BreachReportRepositoryInterface interface {
	Create(ctx context.Context, report *models.BreachReport) error
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.BreachReport, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface         = (*UserRepository)(nil)
	_ VaultRepositoryInterface        = (*VaultRepository)(nil)
	_ BreachReportRepositoryInterface = (*BreachReportRepository)(nil)
)
