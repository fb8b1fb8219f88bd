package validation

import (
	"strings"
	"testing"
)

func TestValidateAuthProvider(t *testing.T) {
	t.Parallel()

	type subject struct {
		Provider string `validate:"auth_provider"`
	}

	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"local", false},
		{"google", false},
		{"github", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Validate.Struct(subject{Provider: tt.provider})
		if (err != nil) != tt.wantErr {
			t.Errorf("provider %q: err = %v, wantErr %v", tt.provider, err, tt.wantErr)
		}
	}
}

func TestValidateBirthDate(t *testing.T) {
	t.Parallel()

	type subject struct {
		DOB string `validate:"birth_date"`
	}

	tests := []struct {
		dob     string
		wantErr bool
	}{
		{"1990-04-12", false},
		{"2999-01-01", true},
		{"12/04/1990", true},
		{"not-a-date", true},
	}

	for _, tt := range tests {
		err := Validate.Struct(subject{DOB: tt.dob})
		if (err != nil) != tt.wantErr {
			t.Errorf("dob %q: err = %v, wantErr %v", tt.dob, err, tt.wantErr)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
		{"null\x00byte", "nullbyte"},
		{"bell\x07ring", "bellring"},
	}

	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := ValidatePassword(strings.Repeat("x", 129)); err == nil {
		t.Error("expected error for overlong password")
	}
	if err := ValidatePassword("a sensible passphrase"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
