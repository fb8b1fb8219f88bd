package breach

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// SHA-1("password") = 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8
const (
	pwnedPrefix = "5BAA6"
	pwnedSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
)

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantCount int
		wantErr   bool
	}{
		{
			name:   "pwned password",
			status: http.StatusOK,
			body: "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n" +
				pwnedSuffix + ":3861493\r\n" +
				"011053FD0102E94D6AE2F8B83D76FAF94F6:1\r\n",
			wantCount: 3861493,
		},
		{
			name:      "clean password",
			status:    http.StatusOK,
			body:      "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n",
			wantCount: 0,
		},
		{
			name:    "upstream failure",
			status:  http.StatusServiceUnavailable,
			body:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.URL.Path, "/range/") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := strings.TrimPrefix(r.URL.Path, "/range/"); got != pwnedPrefix {
					t.Errorf("hash prefix = %q, want %q", got, pwnedPrefix)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			c := NewClient(srv.URL, "", "", zap.NewNop())
			count, err := c.CheckPassword(context.Background(), "password")
			if tt.wantErr {
				if err == nil {
					t.Fatal("CheckPassword() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckPassword() error = %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("CheckPassword() = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestScanAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantNames []string
		wantErr   error
	}{
		{
			name:      "breached account",
			status:    http.StatusOK,
			body:      `[{"Name":"Adobe"},{"Name":"LinkedIn"}]`,
			wantNames: []string{"Adobe", "LinkedIn"},
		},
		{
			name:      "clean account",
			status:    http.StatusNotFound,
			body:      "",
			wantNames: []string{},
		},
		{
			name:    "rejected key",
			status:  http.StatusUnauthorized,
			body:    "",
			wantErr: ErrScanUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("hibp-api-key") != "test-key" {
					t.Error("missing api key header")
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			c := NewClient("", srv.URL, "test-key", zap.NewNop())
			names, err := c.ScanAccount(context.Background(), "alice@example.com")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ScanAccount() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanAccount() error = %v", err)
			}
			if len(names) != len(tt.wantNames) {
				t.Fatalf("ScanAccount() = %v, want %v", names, tt.wantNames)
			}
			for i := range names {
				if names[i] != tt.wantNames[i] {
					t.Errorf("breach[%d] = %q, want %q", i, names[i], tt.wantNames[i])
				}
			}
		})
	}
}

func TestScanAccountWithoutKey(t *testing.T) {
	t.Parallel()

	c := NewClient("", "", "", zap.NewNop())
	if _, err := c.ScanAccount(context.Background(), "alice@example.com"); !errors.Is(err, ErrScanUnavailable) {
		t.Errorf("ScanAccount() without key error = %v, want ErrScanUnavailable", err)
	}
}
