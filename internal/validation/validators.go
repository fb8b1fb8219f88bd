package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/breachlens/breachlens-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("auth_provider", validateAuthProvider); err != nil {
		panic(fmt.Sprintf("failed to register auth_provider validator: %v", err))
	}
	if err := Validate.RegisterValidation("birth_date", validateBirthDate); err != nil {
		panic(fmt.Sprintf("failed to register birth_date validator: %v", err))
	}
}

// validateAuthProvider validates that a string is a valid AuthProvider enum value
func validateAuthProvider(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.AuthProvider(value) {
	case models.AuthProviderLocal, models.AuthProviderGoogle:
		return true
	default:
		return false
	}
}

// validateBirthDate accepts YYYY-MM-DD dates that are in the past
func validateBirthDate(fl validator.FieldLevel) bool {
	parsed, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}
	return parsed.Before(time.Now())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePassword enforces the registration password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters")
	}
	return nil
}
