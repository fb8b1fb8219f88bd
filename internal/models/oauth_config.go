package models

import (
	"time"

	"github.com/google/uuid"
)

// OAuthConfig holds OAuth provider configuration stored in the database
type OAuthConfig struct {
	ID           uuid.UUID `json:"id"`
	Provider     string    `json:"provider"`
	ClientID     string    `json:"client_id"`
	ClientSecret *string   `json:"-"`
	RedirectURI  string    `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
