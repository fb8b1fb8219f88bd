// Package vault manages per-user encrypted secret containers. The server
// only ever stores opaque ciphertext; encryption and decryption happen on
// the client using a key derived from the vault salt.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/models"
)

const (
	// DefaultSaltBytes is the default salt length in bytes
	DefaultSaltBytes = 32
	// DefaultKDFCost is the default client-side KDF work factor. Tunable;
	// raise it only after checking the login latency budget.
	DefaultKDFCost = 12
	// MaxKDFCost caps the advertised work factor
	MaxKDFCost = 31
)

// Provisioner creates vault records for newly created accounts
type Provisioner struct {
	saltBytes int
	kdfCost   int
}

// NewProvisioner creates a provisioner with the given salt length and KDF
// cost. Out-of-range values fall back to defaults.
func NewProvisioner(saltBytes, kdfCost int) *Provisioner {
	if saltBytes <= 0 {
		saltBytes = DefaultSaltBytes
	}
	if kdfCost <= 0 {
		kdfCost = DefaultKDFCost
	}
	if kdfCost > MaxKDFCost {
		kdfCost = MaxKDFCost
	}
	return &Provisioner{saltBytes: saltBytes, kdfCost: kdfCost}
}

// NewVault builds a vault record with an empty payload and a fresh
// high-entropy salt. The record is not persisted here; account creation
// persists it in the same transaction as the user row.
func (p *Provisioner) NewVault() (*models.Vault, error) {
	salt, err := p.newSalt()
	if err != nil {
		return nil, err
	}
	return &models.Vault{
		ID:      uuid.New(),
		Payload: "",
		Salt:    salt,
	}, nil
}

// KDFCost returns the configured client-side work factor
func (p *Provisioner) KDFCost() int {
	return p.kdfCost
}

// SaltBytes returns the configured salt length in bytes
func (p *Provisioner) SaltBytes() int {
	return p.saltBytes
}

func (p *Provisioner) newSalt() (string, error) {
	buf := make([]byte, p.saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate vault salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
