package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, user_id, first_name, last_name, email, password_hash, date_of_birth, google_id, profile_picture, auth_provider, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.DateOfBirth,
		&user.GoogleID,
		&user.ProfilePicture,
		&user.AuthProvider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// NextUserNumber allocates the next account number from the database
// sequence. Allocation is atomic, so concurrent signups always receive
// distinct numbers.
func (r *UserRepository) NextUserNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('user_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to allocate user number: %w", err)
	}
	return n, nil
}

// CreateWithVault inserts a user and its vault in a single transaction.
// An account must never exist without a vault, so a failure on either
// insert rolls back both.
func (r *UserRepository) CreateWithVault(ctx context.Context, user *models.User, vault *models.Vault) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	query := `
		INSERT INTO users (id, user_id, first_name, last_name, email, password_hash, date_of_birth, google_id, profile_picture, auth_provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		user.ID,
		user.UserID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.DateOfBirth,
		user.GoogleID,
		user.ProfilePicture,
		user.AuthProvider,
		now,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	vault.UserID = user.ID
	if err := insertVaultTx(ctx, tx, vault); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account creation: %w", err)
	}
	return nil
}

// GetByID retrieves a user by internal ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByGoogleID retrieves a user by Google subject ID
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, googleID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by google ID: %w", err)
	}
	return user, nil
}

// List retrieves a page of users ordered by account number
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.UserID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.PasswordHash,
			&user.DateOfBirth,
			&user.GoogleID,
			&user.ProfilePicture,
			&user.AuthProvider,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// LinkGoogle attaches a Google identity to an existing account. The
// password hash and date of birth are left untouched so a linked local
// account can still sign in with its password.
func (r *UserRepository) LinkGoogle(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET google_id = $2, profile_picture = $3, auth_provider = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.GoogleID,
		user.ProfilePicture,
		user.AuthProvider,
		time.Now(),
	).Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to link google identity: %w", err)
	}
	return nil
}
