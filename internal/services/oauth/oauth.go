package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/types/users"
)

// Provider implements the authorization code flow against one OAuth
// identity provider and normalizes the resulting account profile.
type Provider interface {
	Name() string
	AuthorizeURL(redirectURI, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (users.Profile, error)
}

// NewProviders builds the enabled providers from config. Providers
// without credentials are simply absent from the map.
func NewProviders(cfg *config.Config) map[string]Provider {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	providers := make(map[string]Provider)
	if cfg.OAuth.GitHub.Enabled() {
		providers["github"] = &GitHubProvider{
			clientID:     cfg.OAuth.GitHub.ClientID,
			clientSecret: cfg.OAuth.GitHub.ClientSecret,
			httpClient:   httpClient,
		}
	}
	if cfg.OAuth.Google.Enabled() {
		providers["google"] = &GoogleProvider{
			clientID:     cfg.OAuth.Google.ClientID,
			clientSecret: cfg.OAuth.Google.ClientSecret,
			httpClient:   httpClient,
		}
	}

	return providers
}

// GenerateState generates a random state parameter for CSRF protection
func GenerateState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}

// tokenResponse is the common shape of a token endpoint reply
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// tokenError is the common shape of a token endpoint failure
type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// doTokenRequest posts the code exchange form and parses the reply.
// Both providers speak the same form encoding when asked for JSON.
func doTokenRequest(ctx context.Context, client *http.Client, tokenURL string, data url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var tokenErr tokenError
		if jsonErr := json.Unmarshal(body, &tokenErr); jsonErr == nil && tokenErr.Error != "" {
			return "", fmt.Errorf("token endpoint error: %s - %s", tokenErr.Error, tokenErr.Description)
		}
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	// GitHub reports bad codes inside a 200 body
	if tokenResp.AccessToken == "" {
		var tokenErr tokenError
		if jsonErr := json.Unmarshal(body, &tokenErr); jsonErr == nil && tokenErr.Error != "" {
			return "", fmt.Errorf("token endpoint error: %s - %s", tokenErr.Error, tokenErr.Description)
		}
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	return tokenResp.AccessToken, nil
}

// getJSON performs an authenticated GET against a provider API
func getJSON(ctx context.Context, client *http.Client, apiURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse profile response: %w", err)
	}

	return nil
}
