// Package identity resolves external identity assertions and local
// credentials to exactly one account record. Provider strategies are plain
// values behind the Strategy interface; there is no process-wide registry.
package identity

import (
	"context"
	"errors"

	"github.com/breachlens/breachlens-api/internal/models"
)

var (
	// ErrResolutionFailed indicates the credential store could not be
	// consulted. Callers must treat this as an authentication failure,
	// never as a new user.
	ErrResolutionFailed = errors.New("identity resolution failed")
	// ErrInvalidCredentials indicates a failed local credential check
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates a registration against an existing email
	ErrEmailTaken = errors.New("email already registered")
)

// Assertion is a verified identity assertion from an external provider
type Assertion struct {
	SubjectID  string
	Email      string
	GivenName  string
	FamilyName string
	PictureURL string
}

// Outcome describes how an assertion was resolved to an account
type Outcome int

const (
	// OutcomeMatchedSubject means an account with this provider subject id
	// already existed; no write was performed.
	OutcomeMatchedSubject Outcome = iota
	// OutcomeLinkedEmail means an email-matched account was linked to the
	// provider identity with a single update.
	OutcomeLinkedEmail
	// OutcomeCreated means a new account and its vault were provisioned
	OutcomeCreated
)

// String returns a human-readable outcome name for logs
func (o Outcome) String() string {
	switch o {
	case OutcomeMatchedSubject:
		return "matched_subject"
	case OutcomeLinkedEmail:
		return "linked_email"
	case OutcomeCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Strategy resolves a provider assertion to exactly one account
type Strategy interface {
	Provider() models.AuthProvider
	Resolve(ctx context.Context, assertion Assertion) (*models.User, Outcome, error)
}
