// Package google wraps the Google OAuth2 authorization-code flow and the
// userinfo endpoint used to obtain a verified identity assertion.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/breachlens/breachlens-api/internal/identity"
	"github.com/breachlens/breachlens-api/internal/models"
)

const (
	authURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenURL    = "https://oauth2.googleapis.com/token"
	userinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	maxUserinfoBody = 1 << 20
)

// Client wraps OAuth2 client functionality for Google sign-in
type Client struct {
	config      *oauth2.Config
	userinfoURL string
}

// NewClient creates a new OAuth2 client from stored provider config
func NewClient(cfg *models.OAuthConfig) *Client {
	clientSecret := ""
	if cfg.ClientSecret != nil {
		clientSecret = *cfg.ClientSecret
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}

	return &Client{config: config, userinfoURL: userinfoURL}
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// FetchProfile fetches the userinfo profile for the token and maps it to an
// identity assertion. The subject id comes from the userinfo response, not
// from anything the browser supplied.
func (c *Client) FetchProfile(ctx context.Context, token *oauth2.Token) (identity.Assertion, error) {
	httpClient := c.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return identity.Assertion{}, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return identity.Assertion{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return identity.Assertion{}, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserinfoBody))
	if err != nil {
		return identity.Assertion{}, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	var profile struct {
		Sub        string `json:"sub"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return identity.Assertion{}, fmt.Errorf("failed to parse userinfo response: %w", err)
	}
	if profile.Sub == "" {
		return identity.Assertion{}, fmt.Errorf("userinfo response missing subject")
	}
	if profile.Email == "" {
		return identity.Assertion{}, fmt.Errorf("userinfo response missing email")
	}

	return identity.Assertion{
		SubjectID:  profile.Sub,
		Email:      profile.Email,
		GivenName:  profile.GivenName,
		FamilyName: profile.FamilyName,
		PictureURL: profile.Picture,
	}, nil
}
