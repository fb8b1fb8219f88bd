// Package breach queries public breach-corpus APIs. Password exposure uses
// the k-anonymity range protocol, so the full password hash never leaves
// the process. Account scans query the breach directory by email.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/logger"
)

const (
	// DefaultRangeBaseURL is the default pwned-passwords range API base
	DefaultRangeBaseURL = "https://api.pwnedpasswords.com"
	// DefaultAccountBaseURL is the default breach directory API base
	DefaultAccountBaseURL = "https://haveibeenpwned.com/api/v3"
	// DefaultTimeout is the default timeout for breach API calls
	DefaultTimeout = 15 * time.Second

	hashPrefixLen = 5
	maxRangeBody  = 4 << 20
)

// ErrScanUnavailable indicates the account scan cannot run, typically
// because no directory API key is configured.
var ErrScanUnavailable = errors.New("breach scan unavailable")

// Client talks to the breach corpus APIs
type Client struct {
	rangeBaseURL   string
	accountBaseURL string
	apiKey         string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient creates a breach API client. Empty base URLs fall back to the
// public endpoints. The API key is only needed for account scans.
func NewClient(rangeBaseURL, accountBaseURL, apiKey string, log *zap.Logger) *Client {
	if rangeBaseURL == "" {
		rangeBaseURL = DefaultRangeBaseURL
	}
	if accountBaseURL == "" {
		accountBaseURL = DefaultAccountBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		rangeBaseURL:   strings.TrimRight(rangeBaseURL, "/"),
		accountBaseURL: strings.TrimRight(accountBaseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		logger:         log,
	}
}

// CheckPassword returns how many times the password appears in the breach
// corpus. Only the first five hex characters of the SHA-1 digest are sent
// upstream; the suffix comparison happens locally.
func (c *Client) CheckPassword(ctx context.Context, password string) (int, error) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(fmt.Sprintf("%x", sum))
	prefix, suffix := digest[:hashPrefixLen], digest[hashPrefixLen:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rangeBaseURL+"/range/"+prefix, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build range request: %w", err)
	}
	req.Header.Set("Add-Padding", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to query breach corpus: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("breach corpus returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxRangeBody))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, suffix+":")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, fmt.Errorf("malformed range response line: %w", err)
		}
		return count, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read range response: %w", err)
	}
	return 0, nil
}

// ScanAccount returns the names of breaches the email address appears in.
// The directory API requires a key; without one the scan is unavailable.
func (c *Client) ScanAccount(ctx context.Context, email string) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrScanUnavailable
	}

	endpoint := c.accountBaseURL + "/breachedaccount/" + url.PathEscape(email) + "?truncateResponse=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build account scan request: %w", err)
	}
	req.Header.Set("hibp-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query breach directory: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Not found means not breached.
		return []string{}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("breach_directory_rejected_key")
		return nil, ErrScanUnavailable
	default:
		return nil, fmt.Errorf("breach directory returned status %d", resp.StatusCode)
	}

	var entries []struct {
		Name string `json:"Name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse breach directory response: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	c.logger.Debug("account_scan_complete",
		zap.String("email", logger.RedactEmail(email)),
		zap.Int("breach_count", len(names)),
	)
	return names, nil
}
