package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/models"
)

// BreachReportRepository handles breach report database operations
type BreachReportRepository struct {
	db *DB
}

// NewBreachReportRepository creates a new breach report repository
func NewBreachReportRepository(db *DB) *BreachReportRepository {
	return &BreachReportRepository{db: db}
}

// Create stores a new breach scan result
func (r *BreachReportRepository) Create(ctx context.Context, report *models.BreachReport) error {
	breachesJSON, err := json.Marshal(report.Breaches)
	if err != nil {
		return fmt.Errorf("failed to marshal breaches: %w", err)
	}

	query := `
		INSERT INTO breach_reports (id, user_id, breach_count, breaches, scanned_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING scanned_at
	`
	err = r.db.QueryRowContext(ctx, query,
		report.ID,
		report.UserID,
		report.BreachCount,
		breachesJSON,
		time.Now(),
	).Scan(&report.ScannedAt)
	if err != nil {
		return fmt.Errorf("failed to create breach report: %w", err)
	}
	return nil
}

// GetLatestByUserID returns the most recent breach report for a user
func (r *BreachReportRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.BreachReport, error) {
	report := &models.BreachReport{}
	var breachesJSON []byte

	query := `
		SELECT id, user_id, breach_count, breaches, scanned_at
		FROM breach_reports
		WHERE user_id = $1
		ORDER BY scanned_at DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&report.ID,
		&report.UserID,
		&report.BreachCount,
		&breachesJSON,
		&report.ScannedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("breach report not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get breach report: %w", err)
	}

	if err := json.Unmarshal(breachesJSON, &report.Breaches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breaches: %w", err)
	}
	return report, nil
}
