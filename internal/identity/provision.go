package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/vault"
)

// userNumberPrefix is the prefix of externally visible account identifiers
const userNumberPrefix = "USER"

// FormatUserID renders an account number in the external USER<n> format
func FormatUserID(n int64) string {
	return fmt.Sprintf("%s%d", userNumberPrefix, n)
}

// provisionAccount allocates an account number, builds the user's vault,
// and persists both in one transaction. The sequence allocation is atomic,
// so concurrent provisioning never produces colliding account numbers.
func provisionAccount(ctx context.Context, users database.UserRepositoryInterface, vaults *vault.Provisioner, user *models.User) error {
	n, err := users.NextUserNumber(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	user.ID = uuid.New()
	user.UserID = FormatUserID(n)

	v, err := vaults.NewVault()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	if err := users.CreateWithVault(ctx, user, v); err != nil {
		// Bubble the raw store error so callers can detect unique
		// violations and re-resolve.
		return err
	}
	return nil
}
