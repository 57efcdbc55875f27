package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService      = "researchcopilot"
	keyringUser         = "google"
	credentialsFileName = "credentials.json"
)

// ErrNoCredentials is returned when nothing has been stored by login
var ErrNoCredentials = errors.New("no credentials found. Please log in first:\n  researchcopilot login")

// Credentials hold the Google tokens obtained at login
type Credentials struct {
	mu           sync.RWMutex `json:"-"` // Not serialized
	IDToken      string       `json:"id_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Email        string       `json:"email,omitempty"`
	Expiry       time.Time    `json:"expiry,omitempty"`
}

// GetIDToken returns the bearer token in a thread-safe manner
func (c *Credentials) GetIDToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.IDToken
}

// GetRefreshToken returns the refresh token in a thread-safe manner
func (c *Credentials) GetRefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RefreshToken
}

// ExpiresAt returns the ID token expiry
func (c *Credentials) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Expiry
}

// Update replaces the ID token and its expiry atomically
func (c *Credentials) Update(idToken string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.IDToken = idToken
	c.Expiry = expiry
}

// Snapshot returns a copy safe for serialization
func (c *Credentials) Snapshot() *Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Credentials{
		IDToken:      c.IDToken,
		RefreshToken: c.RefreshToken,
		Email:        c.Email,
		Expiry:       c.Expiry,
	}
}

// ValidateCredentials checks if credentials are usable
func ValidateCredentials(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}
	if strings.TrimSpace(creds.GetIDToken()) == "" {
		return fmt.Errorf("missing id token")
	}
	return nil
}

// CredentialStore persists credentials in the OS keychain and falls back to
// a 0o600 file in the config directory when no keychain is available.
type CredentialStore struct {
	// DisableKeyring forces the file backend
	DisableKeyring bool
}

// DefaultCredentialStore is used by the package level helpers
var DefaultCredentialStore = &CredentialStore{}

// GetCredentialsPath returns the path of the file backend
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFileName), nil
}

// Load returns the stored credentials or ErrNoCredentials
func (s *CredentialStore) Load() (*Credentials, error) {
	if !s.DisableKeyring {
		secret, err := keyring.Get(keyringService, keyringUser)
		switch {
		case err == nil:
			return parseCredentials([]byte(secret))
		case errors.Is(err, keyring.ErrNotFound):
			// fall through to the file, which may predate keychain support
		default:
			slog.Debug("keyring_unavailable", "error", err)
		}
	}

	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return parseCredentials(data)
}

// Save stores creds, preferring the keychain
func (s *CredentialStore) Save(creds *Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	data, err := json.Marshal(creds.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if !s.DisableKeyring {
		err := keyring.Set(keyringService, keyringUser, string(data))
		if err == nil {
			// Remove any copy left by an earlier file fallback
			_ = s.removeFile()
			slog.Debug("credentials_saved", "backend", "keyring")
			return nil
		}
		slog.Warn("keyring_save_failed", "error", err)
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}
	// Save with restrictive permissions (owner read/write only)
	if err := os.WriteFile(filepath.Join(configDir, credentialsFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	slog.Debug("credentials_saved", "backend", "file")
	return nil
}

// Delete removes credentials from every backend. Missing entries are not an
// error.
func (s *CredentialStore) Delete() error {
	if !s.DisableKeyring {
		if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("keyring_delete_failed", "error", err)
		}
	}
	return s.removeFile()
}

func (s *CredentialStore) removeFile() error {
	path, err := GetCredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// parseCredentials accepts the stored JSON document or, for tokens pasted by
// hand, a bare JWT.
func parseCredentials(data []byte) (*Credentials, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrNoCredentials
	}

	if strings.HasPrefix(text, "{") {
		var creds Credentials
		if err := json.Unmarshal([]byte(text), &creds); err != nil {
			return nil, fmt.Errorf("invalid credentials format: %w", err)
		}
		if err := ValidateCredentials(&creds); err != nil {
			return nil, err
		}
		return &creds, nil
	}

	if strings.Count(text, ".") != 2 || strings.ContainsAny(text, " \t\n") {
		return nil, fmt.Errorf("invalid credentials format: expected JSON document or JWT")
	}
	return &Credentials{IDToken: text}, nil
}

// ParseCredentials parses credentials exported by login or a raw ID token
func ParseCredentials(data []byte) (*Credentials, error) {
	return parseCredentials(data)
}

// LoadCredentials loads credentials with the default store
func LoadCredentials() (*Credentials, error) {
	return DefaultCredentialStore.Load()
}

// SaveCredentials saves credentials with the default store
func SaveCredentials(creds *Credentials) error {
	return DefaultCredentialStore.Save(creds)
}

// DeleteCredentials removes credentials with the default store
func DeleteCredentials() error {
	return DefaultCredentialStore.Delete()
}

// ImportCredentials imports a token file written by another machine or a
// raw ID token
func ImportCredentials(sourcePath string) (*Credentials, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", sourcePath)
		}
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	creds, err := parseCredentials(data)
	if err != nil {
		return nil, err
	}
	return creds, SaveCredentials(creds)
}
