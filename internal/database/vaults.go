package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/models"
)

// VaultRepository handles vault database operations
type VaultRepository struct {
	db *DB
}

// NewVaultRepository creates a new vault repository
func NewVaultRepository(db *DB) *VaultRepository {
	return &VaultRepository{db: db}
}

// insertVaultTx inserts a vault inside an existing transaction. Used by
// UserRepository.CreateWithVault so that user and vault creation commit
// or roll back together.
func insertVaultTx(ctx context.Context, tx *sql.Tx, vault *models.Vault) error {
	query := `
		INSERT INTO vaults (id, user_id, payload, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	now := time.Now()
	err := tx.QueryRowContext(ctx, query,
		vault.ID,
		vault.UserID,
		vault.Payload,
		vault.Salt,
		now,
		now,
	).Scan(&vault.CreatedAt, &vault.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	return nil
}

// GetByUserID retrieves the vault owned by the given user
func (r *VaultRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Vault, error) {
	vault := &models.Vault{}
	query := `
		SELECT id, user_id, payload, salt, created_at, updated_at
		FROM vaults
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&vault.ID,
		&vault.UserID,
		&vault.Payload,
		&vault.Salt,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vault not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}
	return vault, nil
}

// UpdatePayload replaces the vault ciphertext for the given user
func (r *VaultRepository) UpdatePayload(ctx context.Context, userID uuid.UUID, payload string) error {
	query := `
		UPDATE vaults
		SET payload = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING updated_at
	`
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, userID, payload, time.Now()).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("vault not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update vault: %w", err)
	}
	return nil
}
