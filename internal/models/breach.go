package models

import (
	"time"

	"github.com/google/uuid"
)

// BreachReport records the outcome of an account breach scan
type BreachReport struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	BreachCount int       `json:"breach_count"`
	Breaches    []string  `json:"breaches"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// StrengthReport summarizes a password strength analysis. Only derived
// metrics are kept; the password itself is never stored or forwarded.
type StrengthReport struct {
	Score       int      `json:"score"` // 0 (very weak) to 4 (very strong)
	EntropyBits float64  `json:"entropy_bits"`
	Length      int      `json:"length"`
	HasLower    bool     `json:"has_lower"`
	HasUpper    bool     `json:"has_upper"`
	HasDigit    bool     `json:"has_digit"`
	HasSymbol   bool     `json:"has_symbol"`
	Warnings    []string `json:"warnings,omitempty"`
	Pwned       *int     `json:"pwned,omitempty"` // times seen in breach corpus, if checked
}
