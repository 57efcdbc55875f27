// Package config handles configuration and credential storage for researchcopilot.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/diogo/researchcopilot/internal/models"
)

// Environment variables read on top of the config file
const (
	EnvHome          = "RESEARCHCOPILOT_HOME"
	EnvBackendURL    = "RESEARCHCOPILOT_BACKEND_URL"
	EnvLegacyBackend = "NEXT_PUBLIC_BACKEND_BASE_URL"
	EnvClientID      = "RESEARCHCOPILOT_CLIENT_ID"
	EnvClientSecret  = "RESEARCHCOPILOT_CLIENT_SECRET"
	EnvToken         = "RESEARCHCOPILOT_TOKEN"
	EnvLogLevel      = "RESEARCHCOPILOT_LOG_LEVEL"
)

const (
	defaultDirName      = ".researchcopilot"
	configFileName      = "config.json"
	defaultRedirectPort = 8765
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// OAuthConfig holds the Google OAuth client used by login
type OAuthConfig struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	RedirectPort int    `json:"redirect_port,omitempty"`
}

// Config represents the user configuration
type Config struct {
	BackendURL string      `json:"backend_url"`
	OAuth      OAuthConfig `json:"oauth"`
	// RequestTimeout is the limit in seconds for non-streaming calls
	RequestTimeout int `json:"request_timeout"`
	// FlushPartialLine keeps a final stream record that lacks a newline
	FlushPartialLine bool           `json:"flush_partial_line"`
	CopyToClipboard  bool           `json:"copy_to_clipboard"`
	TUITheme         string         `json:"tui_theme,omitempty"`
	Markdown         MarkdownConfig `json:"markdown,omitempty"`
	DefaultProject   string         `json:"default_project,omitempty"`
	LogLevel         string         `json:"log_level,omitempty"`
	LogFile          string         `json:"log_file,omitempty"`
	LogFormat        string         `json:"log_format,omitempty"`

	// EnvToken is a bearer token supplied through the environment. It is
	// never written back to disk.
	EnvToken string `json:"-"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BackendURL:     models.DefaultBackendURL,
		OAuth:          OAuthConfig{RedirectPort: defaultRedirectPort},
		RequestTimeout: 30,
		TUITheme:       "tokyonight",
		Markdown:       DefaultMarkdownConfig(),
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// Use 0o700 for sensitive directories (contains credentials)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// GetLogPath returns the default log file path
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "logs", "researchcopilot.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides. A .env file in the working directory is read first; variables
// already set in the process win over it.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg, err := loadFile()
	applyEnv(&cfg)
	return cfg, err
}

// LoadFileConfig loads the config file alone, without environment
// overrides, so that it can be edited and saved back
func LoadFileConfig() (Config, error) {
	return loadFile()
}

func loadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLegacyBackend)); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvClientID)); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvClientSecret)); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.EnvToken = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if cfg.OAuth.RedirectPort == 0 {
		cfg.OAuth.RedirectPort = defaultRedirectPort
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Use 0o600: the file may hold the OAuth client secret
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SettableKeys lists the keys accepted by Set, in display order
func SettableKeys() []string {
	return []string{
		"backend_url",
		"oauth.client_id",
		"oauth.client_secret",
		"oauth.redirect_port",
		"request_timeout",
		"flush_partial_line",
		"copy_to_clipboard",
		"tui_theme",
		"markdown.style",
		"default_project",
		"log_level",
		"log_file",
		"log_format",
	}
}

// Set assigns value to the dotted key of cfg
func (cfg *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "backend_url":
		cfg.BackendURL = strings.TrimRight(value, "/")
	case "oauth.client_id":
		cfg.OAuth.ClientID = value
	case "oauth.client_secret":
		cfg.OAuth.ClientSecret = value
	case "oauth.redirect_port":
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port: %s", value)
		}
		cfg.OAuth.RedirectPort = port
	case "request_timeout":
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid timeout: %s", value)
		}
		cfg.RequestTimeout = secs
	case "flush_partial_line":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.FlushPartialLine = b
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.CopyToClipboard = b
	case "tui_theme":
		cfg.TUITheme = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "default_project":
		cfg.DefaultProject = value
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log level: %s", value)
		}
	case "log_file":
		cfg.LogFile = value
	case "log_format":
		switch strings.ToLower(value) {
		case "json", "text":
			cfg.LogFormat = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log format: %s", value)
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
