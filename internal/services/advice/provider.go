// Package advice turns a strength report into plain-language hardening
// guidance. Only derived metrics ever reach the provider; the password
// itself is never part of a prompt.
package advice

import (
	"context"

	"github.com/breachlens/breachlens-api/internal/models"
)

// Provider is the interface for advice providers
type Provider interface {
	// HardeningAdvice returns guidance for the password described by the report
	HardeningAdvice(ctx context.Context, report models.StrengthReport) (string, error)
}

// StaticProvider serves canned advice when no AI provider is configured
type StaticProvider struct{}

// NewStaticProvider creates a provider that needs no external service
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// HardeningAdvice returns deterministic advice from the report alone
func (p *StaticProvider) HardeningAdvice(_ context.Context, report models.StrengthReport) (string, error) {
	if report.Pwned != nil && *report.Pwned > 0 {
		return "This password appears in known breach corpora. Replace it everywhere it is used and enable two-factor authentication.", nil
	}
	switch {
	case report.Score <= 1:
		return "Use a longer passphrase of four or more unrelated words, or a generated password of 16+ characters from a password manager.", nil
	case report.Score <= 3:
		return "Lengthen the password and mix in more character classes. A password manager can generate and store a stronger one.", nil
	default:
		return "This password is strong. Keep it unique to one account and store it in a password manager.", nil
	}
}
