package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/Reshurum/gcal-discord-poster/internal/config"
)

// noNetworkTransport fails the test if any request goes out.
type noNetworkTransport struct {
	t *testing.T
}

func (n noNetworkTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n.t.Errorf("unexpected network call to %s", req.URL)
	return nil, errors.New("unexpected network call")
}

func noNetworkManager(t *testing.T) *AuthManager {
	t.Helper()
	return NewAuthManager(&http.Client{Transport: noNetworkTransport{t: t}})
}

func validRecord() *config.GoogleCredentials {
	return &config.GoogleCredentials{
		ClientID:     "c",
		ClientSecret: "s",
		RefreshToken: "r",
		Token:        "t",
		TokenURI:     "https://oauth2.example/token",
	}
}

func configWith(rec *config.GoogleCredentials) *config.Config {
	cfg := &config.Config{}
	cfg.SetGoogleCredentials(rec)
	return cfg
}

func TestSavedCredentialsAbsent(t *testing.T) {
	manager := noNetworkManager(t)

	token, err := manager.SavedCredentials(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token != nil {
		t.Errorf("expected no credentials for empty config, got %+v", token)
	}
}

func TestSavedCredentialsIncompleteRecord(t *testing.T) {
	mutations := map[string]func(*config.GoogleCredentials){
		"refresh_token": func(r *config.GoogleCredentials) { r.RefreshToken = "" },
		"client_id":     func(r *config.GoogleCredentials) { r.ClientID = "" },
		"client_secret": func(r *config.GoogleCredentials) { r.ClientSecret = "" },
		"token_uri":     func(r *config.GoogleCredentials) { r.TokenURI = "" },
	}

	for field, clear := range mutations {
		t.Run(field, func(t *testing.T) {
			manager := noNetworkManager(t)
			rec := validRecord()
			clear(rec)

			token, err := manager.SavedCredentials(context.Background(), configWith(rec))
			if err != nil {
				t.Fatalf("SavedCredentials failed: %v", err)
			}
			if token != nil {
				t.Errorf("expected no credentials with %s missing, got %+v", field, token)
			}
		})
	}
}

func TestSavedCredentialsValidNoExpiry(t *testing.T) {
	manager := noNetworkManager(t)

	token, err := manager.SavedCredentials(context.Background(), configWith(validRecord()))
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token == nil {
		t.Fatal("expected credentials, got nil")
	}
	if token.AccessToken != "t" {
		t.Errorf("AccessToken = %q, want %q", token.AccessToken, "t")
	}
	if token.RefreshToken != "r" {
		t.Errorf("RefreshToken = %q, want %q", token.RefreshToken, "r")
	}
}

func TestSavedCredentialsValidFutureExpiry(t *testing.T) {
	manager := noNetworkManager(t)
	rec := validRecord()
	rec.Expiry = time.Now().Add(time.Hour)

	token, err := manager.SavedCredentials(context.Background(), configWith(rec))
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token == nil || token.AccessToken != "t" {
		t.Fatalf("expected stored token back without refresh, got %+v", token)
	}
}

func TestSavedCredentialsNoTokenNoExpiry(t *testing.T) {
	// A record that never held an access token is not refreshable; it must
	// fall through to the interactive flow instead of attempting a refresh.
	manager := noNetworkManager(t)
	rec := validRecord()
	rec.Token = ""

	token, err := manager.SavedCredentials(context.Background(), configWith(rec))
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token != nil {
		t.Errorf("expected no credentials for token-less record, got %+v", token)
	}
}

func TestSavedCredentialsExpiredRefresh(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse refresh form: %v", err)
		}
		gotForm = map[string]string{
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"grant_type":    r.PostFormValue("grant_type"),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"access_token": "t2",
			"expires_in":   3600,
			"token_type":   "Bearer",
		}); err != nil {
			t.Errorf("failed to encode token response: %v", err)
		}
	}))
	defer server.Close()

	rec := validRecord()
	rec.TokenURI = server.URL
	rec.Expiry = time.Now().Add(-time.Hour)
	cfg := configWith(rec)

	manager := NewAuthManager(server.Client())
	token, err := manager.SavedCredentials(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token == nil {
		t.Fatal("expected refreshed credentials, got nil")
	}
	if token.AccessToken != "t2" {
		t.Errorf("AccessToken = %q, want refreshed %q", token.AccessToken, "t2")
	}
	if token.RefreshToken != "r" {
		t.Errorf("RefreshToken = %q, want preserved %q", token.RefreshToken, "r")
	}
	if !token.Expiry.After(time.Now().Add(30 * time.Minute)) {
		t.Errorf("Expiry = %v, want roughly an hour out", token.Expiry)
	}

	want := map[string]string{
		"client_id":     "c",
		"client_secret": "s",
		"refresh_token": "r",
		"grant_type":    "refresh_token",
	}
	for key, value := range want {
		if gotForm[key] != value {
			t.Errorf("refresh form %s = %q, want %q", key, gotForm[key], value)
		}
	}

	// The in-memory record picks up the new access token so a later save
	// persists it.
	if got := cfg.GoogleCredentials().Token; got != "t2" {
		t.Errorf("stored record token = %q, want %q", got, "t2")
	}
}

func TestSavedCredentialsRefreshRotatesRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "t2",
			"refresh_token": "r2",
			"expires_in":    3600,
			"token_type":    "Bearer",
		}); err != nil {
			t.Errorf("failed to encode token response: %v", err)
		}
	}))
	defer server.Close()

	rec := validRecord()
	rec.TokenURI = server.URL
	rec.Expiry = time.Now().Add(-time.Minute)
	cfg := configWith(rec)

	manager := NewAuthManager(server.Client())
	token, err := manager.SavedCredentials(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if token.RefreshToken != "r2" {
		t.Errorf("RefreshToken = %q, want rotated %q", token.RefreshToken, "r2")
	}
	if got := cfg.GoogleCredentials().RefreshToken; got != "r2" {
		t.Errorf("stored record refresh token = %q, want %q", got, "r2")
	}
}

func TestSavedCredentialsRefreshProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token has been revoked.",
		}); err != nil {
			t.Errorf("failed to encode error response: %v", err)
		}
	}))
	defer server.Close()

	rec := validRecord()
	rec.TokenURI = server.URL
	rec.Expiry = time.Now().Add(-time.Minute)

	manager := NewAuthManager(server.Client())
	_, err := manager.SavedCredentials(context.Background(), configWith(rec))
	if err == nil {
		t.Fatal("expected provider error to propagate, got nil")
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("error = %v, want it to carry the provider error code", err)
	}
}

func TestStash(t *testing.T) {
	cfg := &config.Config{}
	oauthCfg := &oauth2.Config{
		ClientID:     "c",
		ClientSecret: "s",
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.example/token",
		},
	}
	expiry := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	token := &oauth2.Token{
		AccessToken:  "t",
		RefreshToken: "r",
		Expiry:       expiry,
	}

	returned := Stash(cfg, oauthCfg, token)
	if returned != cfg {
		t.Error("Stash should return the mutated config for chaining")
	}

	rec := cfg.GoogleCredentials()
	if rec == nil {
		t.Fatal("no record stashed")
	}
	if rec.ClientID != "c" || rec.ClientSecret != "s" || rec.RefreshToken != "r" || rec.Token != "t" || rec.TokenURI != "https://oauth2.example/token" {
		t.Errorf("stashed record = %+v", rec)
	}
	if !rec.Expiry.Equal(expiry) {
		t.Errorf("stashed expiry = %v, want %v", rec.Expiry, expiry)
	}
}

func TestStashSaveReloadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &config.Config{}
	oauthCfg := &oauth2.Config{
		ClientID:     "c",
		ClientSecret: "s",
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.example/token"},
	}
	token := &oauth2.Token{
		AccessToken:  "t",
		RefreshToken: "r",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}

	Stash(cfg, oauthCfg, token)
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	manager := noNetworkManager(t)
	got, err := manager.SavedCredentials(context.Background(), reloaded)
	if err != nil {
		t.Fatalf("SavedCredentials failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected credentials after reload, got nil")
	}
	if got.AccessToken != "t" || got.RefreshToken != "r" {
		t.Errorf("reloaded token = %+v", got)
	}

	rec := reloaded.GoogleCredentials()
	if rec.ClientID != "c" || rec.ClientSecret != "s" || rec.TokenURI != "https://oauth2.example/token" {
		t.Errorf("reloaded record = %+v", rec)
	}

	// Sanity check the on-disk shape matches what the Python era of this
	// tool wrote.
	path, err := config.Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if filepath.Base(path) != "config.json" {
		t.Errorf("config file = %q, want config.json", path)
	}
}
