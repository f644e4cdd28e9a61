package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Reshurum/gcal-discord-poster/internal/config"
	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

// AuthManager obtains, validates, refreshes, and persists Google OAuth2
// credentials, using the config package as its persistence backend.
type AuthManager struct {
	httpClient *http.Client
}

// NewAuthManager creates an authentication manager. A nil httpClient selects
// a default client with a 30 second timeout; tests inject their own.
func NewAuthManager(httpClient *http.Client) *AuthManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &AuthManager{httpClient: httpClient}
}

// SavedCredentials returns the Google credentials stored in the config.
//
// A missing or incomplete record yields (nil, nil). A stored token that is
// still valid is returned without any network I/O. An expired token with a
// refresh token triggers a single synchronous refresh against the record's
// token endpoint; the stored record is updated in memory on success so a
// subsequent config save persists the new access token. An expired-and-not-
// refreshable or never-issued token also yields (nil, nil).
func (a *AuthManager) SavedCredentials(ctx context.Context, cfg *config.Config) (*oauth2.Token, error) {
	rec := cfg.GoogleCredentials()
	if rec == nil || rec.RefreshToken == "" || rec.ClientID == "" || rec.ClientSecret == "" || rec.TokenURI == "" {
		logger.Debug("no usable credential record in config")
		return nil, nil
	}

	// A record without a recorded expiry never counts as expired; a record
	// with an access token and no expiry is taken at face value.
	expired := !rec.Expiry.IsZero() && rec.Expiry.Before(time.Now())

	if rec.Token != "" && !expired {
		logger.Debug("stored credentials are valid", "expiry", rec.Expiry)
		return &oauth2.Token{
			AccessToken:  rec.Token,
			RefreshToken: rec.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       rec.Expiry,
		}, nil
	}

	if !expired {
		// No access token was ever issued for this record; not refreshable.
		logger.Debug("stored credentials are unusable and not refreshable")
		return nil, nil
	}

	refreshed, err := a.refresh(ctx, rec)
	if err != nil {
		return nil, err
	}

	rec.Token = refreshed.AccessToken
	rec.RefreshToken = refreshed.RefreshToken
	rec.Expiry = refreshed.Expiry
	return refreshed, nil
}

// refresh performs one refresh-token grant against the record's token
// endpoint. Provider errors are returned as-is, no retry.
func (a *AuthManager) refresh(ctx context.Context, rec *config.GoogleCredentials) (*oauth2.Token, error) {
	params := url.Values{
		"client_id":     {rec.ClientID},
		"client_secret": {rec.ClientSecret},
		"refresh_token": {rec.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rec.TokenURI, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	logger.Debug("token refresh request", "token_uri", rec.TokenURI, "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token refresh failed: %s - %s", errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("token refresh failed with status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh token response: %w", err)
	}
	if tokenResp.AccessToken == "" || tokenResp.ExpiresIn <= 0 {
		return nil, fmt.Errorf("invalid token refresh response: missing required fields")
	}

	refreshToken := rec.RefreshToken
	if tokenResp.RefreshToken != "" {
		refreshToken = tokenResp.RefreshToken
	}

	return &oauth2.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenResp.TokenType,
		Expiry:       time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}, nil
}

// Stash writes the credential record derived from the given token into the
// config. In-memory mutation only; the caller decides when to save. Returns
// the config for chaining.
func Stash(cfg *config.Config, oauthCfg *oauth2.Config, token *oauth2.Token) *config.Config {
	return cfg.SetGoogleCredentials(&config.GoogleCredentials{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		Expiry:       token.Expiry,
		RefreshToken: token.RefreshToken,
		Token:        token.AccessToken,
		TokenURI:     oauthCfg.Endpoint.TokenURL,
	})
}
