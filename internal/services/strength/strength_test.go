package strength

import (
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		password  string
		wantScore int
	}{
		{"empty", "", 0},
		{"common password", "password", 0},
		{"common with digit", "Password1", 0},
		{"too short", "aB3!", 0},
		{"single repeated character", "aaaaaaaa", 1},
		{"keyboard sequence", "qwerty123", 2},
		{"decent but short", "Tr0ub4dor&3", 2},
		{"long passphrase", "correct horse battery staple", 4},
		{"long mixed", "vN8#kLp2$wQz9@mR4x", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := Analyze(tt.password)
			if report.Score != tt.wantScore {
				t.Errorf("Analyze(%q).Score = %d, want %d (entropy %.1f, warnings %v)",
					tt.password, report.Score, tt.wantScore, report.EntropyBits, report.Warnings)
			}
		})
	}
}

func TestAnalyzeCharacterClasses(t *testing.T) {
	t.Parallel()

	report := Analyze("aB3!xyz")
	if !report.HasLower || !report.HasUpper || !report.HasDigit || !report.HasSymbol {
		t.Errorf("character classes = lower:%v upper:%v digit:%v symbol:%v, want all true",
			report.HasLower, report.HasUpper, report.HasDigit, report.HasSymbol)
	}
	if report.Length != 7 {
		t.Errorf("Length = %d, want 7", report.Length)
	}
}

func TestAnalyzeWarnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		contains string
	}{
		{"short password warned", "abc", "too short"},
		{"single class warned", "abcdefghij", "one character class"},
		{"keyboard run warned", "Xqwervb19!k", "keyboard sequence"},
		{"common password warned", "letmein", "most common"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := Analyze(tt.password)
			found := false
			for _, w := range report.Warnings {
				if strings.Contains(w, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("Analyze(%q).Warnings = %v, want one containing %q", tt.password, report.Warnings, tt.contains)
			}
		})
	}
}

func TestEntropyGrowsWithLength(t *testing.T) {
	t.Parallel()

	short := Analyze("abcXYZ12")
	long := Analyze("abcXYZ12abcXYZ12")
	if long.EntropyBits <= short.EntropyBits {
		t.Errorf("entropy did not grow with length: %.1f vs %.1f", short.EntropyBits, long.EntropyBits)
	}
}
