// Package strength scores passwords locally. The score is a coarse 0-4
// bucket derived from estimated entropy and a handful of structural checks;
// the password itself never leaves this package.
package strength

import (
	"math"
	"strings"
	"unicode"

	"github.com/breachlens/breachlens-api/internal/models"
)

const (
	lowerSize  = 26
	upperSize  = 26
	digitSize  = 10
	symbolSize = 33

	minRecommendedLength = 12
)

// commonPasswords covers the handful of passwords that dominate breach
// corpora. Exposure beyond this list is the breach API's job.
var commonPasswords = map[string]bool{
	"password": true, "password1": true, "123456": true, "12345678": true,
	"123456789": true, "qwerty": true, "abc123": true, "letmein": true,
	"monkey": true, "dragon": true, "111111": true, "iloveyou": true,
	"admin": true, "welcome": true, "login": true, "princess": true,
	"sunshine": true, "passw0rd": true, "football": true, "master": true,
}

var keyboardRuns = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm", "0123456789"}

// Analyze scores a password without consulting any external service.
func Analyze(password string) models.StrengthReport {
	report := models.StrengthReport{Length: len(password)}

	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			report.HasLower = true
		case unicode.IsUpper(r):
			report.HasUpper = true
		case unicode.IsDigit(r):
			report.HasDigit = true
		default:
			report.HasSymbol = true
		}
	}

	charset := 0
	if report.HasLower {
		charset += lowerSize
	}
	if report.HasUpper {
		charset += upperSize
	}
	if report.HasDigit {
		charset += digitSize
	}
	if report.HasSymbol {
		charset += symbolSize
	}
	if charset > 0 {
		report.EntropyBits = float64(report.Length) * math.Log2(float64(charset))
	}

	report.Warnings = warnings(password, &report)
	report.Score = score(report.EntropyBits, report.Warnings)
	return report
}

func warnings(password string, report *models.StrengthReport) []string {
	var out []string
	lower := strings.ToLower(password)

	if report.Length < 8 {
		out = append(out, "too short: use at least 8 characters")
	} else if report.Length < minRecommendedLength {
		out = append(out, "short: 12 or more characters is recommended")
	}
	if commonPasswords[lower] {
		out = append(out, "this is one of the most common passwords")
	}
	if report.Length > 0 && isSingleRepeat(password) {
		out = append(out, "repeated single character")
	}
	for _, run := range keyboardRuns {
		if hasRunOfLength(lower, run, 4) {
			out = append(out, "contains a keyboard sequence")
			break
		}
	}
	classes := 0
	for _, has := range []bool{report.HasLower, report.HasUpper, report.HasDigit, report.HasSymbol} {
		if has {
			classes++
		}
	}
	if report.Length > 0 && classes < 2 {
		out = append(out, "only one character class in use")
	}
	return out
}

func isSingleRepeat(s string) bool {
	first := rune(0)
	for i, r := range s {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			return false
		}
	}
	return true
}

func hasRunOfLength(s, run string, n int) bool {
	for i := 0; i+n <= len(run); i++ {
		if strings.Contains(s, run[i:i+n]) {
			return true
		}
	}
	return false
}

func score(entropyBits float64, warns []string) int {
	s := 0
	switch {
	case entropyBits >= 80:
		s = 4
	case entropyBits >= 60:
		s = 3
	case entropyBits >= 40:
		s = 2
	case entropyBits >= 25:
		s = 1
	}
	// Structural weaknesses cap the score regardless of raw entropy.
	if len(warns) > 0 && s > 2 {
		s = 2
	}
	for _, w := range warns {
		if strings.HasPrefix(w, "this is one of the most common") || strings.HasPrefix(w, "too short") {
			return 0
		}
	}
	return s
}
