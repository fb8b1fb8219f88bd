package models

import (
	"time"

	"github.com/google/uuid"
)

// Vault is the per-user encrypted secret container. The payload is an opaque
// ciphertext blob produced client-side; the server never decrypts it. The
// salt is generated once at provisioning time and handed to clients for key
// derivation.
type Vault struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Payload   string    `json:"vault"`
	Salt      string    `json:"salt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
