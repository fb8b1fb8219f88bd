package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/breachlens/breachlens-api/internal/models"
)

// OAuthConfigRepository handles OAuth provider configuration storage
type OAuthConfigRepository struct {
	db *DB
}

// NewOAuthConfigRepository creates a new OAuth config repository
func NewOAuthConfigRepository(db *DB) *OAuthConfigRepository {
	return &OAuthConfigRepository{db: db}
}

// GetByProvider retrieves the configuration for a provider (e.g. "google")
func (r *OAuthConfigRepository) GetByProvider(ctx context.Context, provider string) (*models.OAuthConfig, error) {
	cfg := &models.OAuthConfig{}
	query := `
		SELECT id, provider, client_id, client_secret, redirect_uri, created_at, updated_at
		FROM oauth_configs
		WHERE provider = $1
	`
	err := r.db.QueryRowContext(ctx, query, provider).Scan(
		&cfg.ID,
		&cfg.Provider,
		&cfg.ClientID,
		&cfg.ClientSecret,
		&cfg.RedirectURI,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("oauth config not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}
	return cfg, nil
}

// Create inserts a new provider configuration
func (r *OAuthConfigRepository) Create(ctx context.Context, cfg *models.OAuthConfig) error {
	query := `
		INSERT INTO oauth_configs (id, provider, client_id, client_secret, redirect_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		cfg.ID,
		cfg.Provider,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.RedirectURI,
		now,
		now,
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create oauth config: %w", err)
	}
	return nil
}

// Update replaces an existing provider configuration
func (r *OAuthConfigRepository) Update(ctx context.Context, cfg *models.OAuthConfig) error {
	query := `
		UPDATE oauth_configs
		SET client_id = $2, client_secret = $3, redirect_uri = $4, updated_at = $5
		WHERE provider = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		cfg.Provider,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.RedirectURI,
		time.Now(),
	).Scan(&cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("oauth config not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update oauth config: %w", err)
	}
	return nil
}

// List returns all provider configurations
func (r *OAuthConfigRepository) List(ctx context.Context) ([]*models.OAuthConfig, error) {
	query := `
		SELECT id, provider, client_id, client_secret, redirect_uri, created_at, updated_at
		FROM oauth_configs
		ORDER BY provider
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list oauth configs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var configs []*models.OAuthConfig
	for rows.Next() {
		cfg := &models.OAuthConfig{}
		if err := rows.Scan(
			&cfg.ID,
			&cfg.Provider,
			&cfg.ClientID,
			&cfg.ClientSecret,
			&cfg.RedirectURI,
			&cfg.CreatedAt,
			&cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan oauth config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate oauth configs: %w", err)
	}
	return configs, nil
}
