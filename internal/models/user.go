package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider identifies how an account authenticates
type AuthProvider string

const (
	// AuthProviderLocal is an email/password account
	AuthProviderLocal AuthProvider = "local"
	// AuthProviderGoogle is a Google OAuth account (possibly linked to a local one)
	AuthProviderGoogle AuthProvider = "google"
)

// User represents an identity record in the system.
// Local accounts carry a password hash and date of birth; provider-linked
// accounts carry a Google subject id instead. A local account keeps its
// password after being linked to a Google identity.
type User struct {
	ID             uuid.UUID    `json:"id"`
	UserID         string       `json:"userId"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	Email          string       `json:"email"`
	PasswordHash   *string      `json:"-"`
	DateOfBirth    *time.Time   `json:"dateOfBirth,omitempty"`
	GoogleID       *string      `json:"-"`
	ProfilePicture *string      `json:"profilePicture,omitempty"`
	AuthProvider   AuthProvider `json:"authProvider"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// UserSummary is the client-facing projection of a user. It is what gets
// serialized into the OAuth redirect and session responses; it never contains
// the password hash or vault material.
type UserSummary struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	AuthProvider   string `json:"authProvider"`
}

// Summary returns the client-facing projection of the user
func (u *User) Summary() UserSummary {
	s := UserSummary{
		ID:           u.ID.String(),
		UserID:       u.UserID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		AuthProvider: string(u.AuthProvider),
	}
	if u.ProfilePicture != nil {
		s.ProfilePicture = *u.ProfilePicture
	}
	return s
}

// IsLocal reports whether the account can authenticate with a password
func (u *User) IsLocal() bool {
	return u.PasswordHash != nil
}
