// Package config handles user configuration for iqrachat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	appDirName = ".iqrachat"

	// EnvEndpoint overrides the configured service endpoint
	EnvEndpoint = "IQRACHAT_ENDPOINT"
	// EnvConfigDir relocates the configuration directory
	EnvConfigDir = "IQRACHAT_HOME"

	defaultEndpoint = "http://localhost:8000/query"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "notty" or path to JSON style
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the URL of the AI query service
	Endpoint string `json:"endpoint"`
	// ResponsePath is the JSON path of the reply text in a success body
	ResponsePath string `json:"response_path"`
	// TimeoutSeconds bounds one request attempt
	TimeoutSeconds int `json:"timeout_seconds"`
	// ExportDir is where downloaded transcripts are written
	ExportDir       string `json:"export_dir,omitempty"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	LogLevel        string `json:"log_level"`
	// ScrollThresholdLines is the near-bottom distance in transcript lines
	ScrollThresholdLines int            `json:"scroll_threshold_lines"`
	Markdown             MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:             defaultEndpoint,
		ResponsePath:         "response",
		TimeoutSeconds:       60,
		CopyToClipboard:      false,
		LogLevel:             "warn",
		ScrollThresholdLines: 3,
		Markdown:             DefaultMarkdownConfig(),
	}
}

// Timeout returns the request timeout as a duration
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the fields a client needs
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint is not configured (set %s or run 'iqrachat config set endpoint <url>')", EnvEndpoint)
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL: %s", c.Endpoint)
	}
	if c.ScrollThresholdLines < 0 {
		return fmt.Errorf("scroll_threshold_lines must not be negative")
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, appDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

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
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "iqrachat.log"), nil
}

// GetExportDir returns the export directory from config, creating it if necessary
func GetExportDir(cfg Config) (string, error) {
	dir := cfg.ExportDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "exports")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg, err := ReadConfig()
	return applyEnv(cfg), err
}

// ReadConfig loads the configuration file alone. A missing file yields the
// defaults.
func ReadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg Config) Config {
	if ep := strings.TrimSpace(os.Getenv(EnvEndpoint)); ep != "" {
		cfg.Endpoint = ep
	}
	return cfg
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the settable configuration keys
func Keys() []string {
	return []string{
		"endpoint",
		"response_path",
		"timeout_seconds",
		"export_dir",
		"copy_to_clipboard",
		"log_level",
		"scroll_threshold_lines",
		"markdown.style",
	}
}

// Set assigns a string value to a configuration key
func (c *Config) Set(key, value string) error {
	switch key {
	case "endpoint":
		c.Endpoint = strings.TrimSpace(value)
	case "response_path":
		c.ResponsePath = value
	case "timeout_seconds":
		n, err := parsePositive(value)
		if err != nil {
			return fmt.Errorf("timeout_seconds: %w", err)
		}
		c.TimeoutSeconds = n
	case "export_dir":
		c.ExportDir = value
	case "copy_to_clipboard":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard: %w", err)
		}
		c.CopyToClipboard = b
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "scroll_threshold_lines":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 0 {
			return fmt.Errorf("scroll_threshold_lines: expected a non-negative integer, got %q", value)
		}
		c.ScrollThresholdLines = n
	case "markdown.style":
		c.Markdown.Style = value
	default:
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func parsePositive(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive integer, got %q", s)
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", s)
}
