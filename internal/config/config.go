// Package config owns the on-disk configuration document at
// ~/.config/gcal-discord-poster/config.json. The file is a single
// pretty-printed JSON object (sorted keys, 4-space indent) that is read
// wholesale on load and completely overwritten on save.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Reshurum/gcal-discord-poster/internal/logger"
)

const (
	appDirName     = "gcal-discord-poster"
	configFileName = "config.json"
)

var (
	// ErrConfigPathIsDir is returned when the config file path is occupied
	// by a directory.
	ErrConfigPathIsDir = errors.New("config path is a directory")

	// ErrConfigDirConflict is returned when the config directory path exists
	// but is not a directory.
	ErrConfigDirConflict = errors.New("config dir path is not a directory")
)

// Config is the full configuration document. Struct fields are declared in
// the sorted order of their JSON keys so the serialized document keeps
// sorted keys at every save.
type Config struct {
	Calendar *CalendarSettings `json:"calendar,omitempty"`
	Discord  *DiscordSettings  `json:"discord,omitempty"`
	OAuth    *OAuthSettings    `json:"oauth,omitempty"`
}

// CalendarSettings selects which calendar to read and how far ahead to look.
type CalendarSettings struct {
	ID             string `json:"id,omitempty"`
	LookaheadHours int    `json:"lookahead_hours,omitempty"`
}

// DiscordSettings holds the webhook the event digest is posted to.
type DiscordSettings struct {
	WebhookURL string `json:"webhook_url,omitempty"`
}

// OAuthSettings nests per-provider credential records.
type OAuthSettings struct {
	Google *GoogleCredentials `json:"google,omitempty"`
}

// GoogleCredentials is the stored Google OAuth2 credential record. All five
// contract fields are persisted; expiry is additive and omitted when zero so
// records written by older versions of the tool load unchanged.
type GoogleCredentials struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Expiry       time.Time `json:"expiry,omitzero"`
	RefreshToken string    `json:"refresh_token"`
	Token        string    `json:"token"`
	TokenURI     string    `json:"token_uri"`
}

// GoogleCredentials returns the stored record, or nil if no record exists.
func (c *Config) GoogleCredentials() *GoogleCredentials {
	if c == nil || c.OAuth == nil {
		return nil
	}
	return c.OAuth.Google
}

// SetGoogleCredentials overwrites the stored record, creating the oauth
// section on demand. The mutation is in-memory only.
func (c *Config) SetGoogleCredentials(creds *GoogleCredentials) *Config {
	if c.OAuth == nil {
		c.OAuth = &OAuthSettings{}
	}
	c.OAuth.Google = creds
	return c
}

// Path builds the filepath of the config file. Pure, no filesystem I/O
// beyond home directory resolution.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appDirName, configFileName), nil
}

// SetupDir makes sure the config directory exists, creating it (and any
// missing parents) on demand.
func SetupDir() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(configPath)

	info, err := os.Stat(configDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	case err != nil:
		return err
	case !info.IsDir():
		logger.Error("Unable to setup config dir", "path", configDir)
		return fmt.Errorf("%w: unable to setup config dir at %q", ErrConfigDirConflict, configDir)
	}

	return nil
}

// Load reads the config file from the filesystem. A missing file yields a
// zero-value config; invalid JSON propagates to the caller.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		logger.Error("Config path is a directory", "path", configPath)
		return nil, fmt.Errorf("%w: %q", ErrConfigPathIsDir, configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to the filesystem, creating the config directory if
// needed. An existing file is completely overwritten.
func Save(cfg *Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		logger.Error("Config path is a directory", "path", configPath)
		return fmt.Errorf("%w: %q", ErrConfigPathIsDir, configPath)
	}

	if err := SetupDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	// Not atomic: a crash mid-write can truncate the file. The record is
	// recoverable by re-running auth, so the rename dance is not worth it.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
