// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the importer configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags or environment variables.
type Config struct {
	// Connections
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Model       string `json:"model,omitempty"`        // Gemini model name

	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Media acquisition
	TempDir             string `json:"temp_dir,omitempty"`               // Directory for downloaded media
	MaxMediaMB          int64  `json:"max_media_mb,omitempty"`           // Per-asset download cap in megabytes
	DownloadTimeoutSec  int    `json:"download_timeout_sec,omitempty"`   // Per-asset download timeout
	SweepIntervalMin    int    `json:"sweep_interval_min,omitempty"`     // Temp-dir sweep cadence
	UseBrowser          bool   `json:"use_browser,omitempty"`            // Headless browser fallback for script-rendered posts
	FileWaitTimeoutSec  int    `json:"file_wait_timeout_sec,omitempty"`  // Max wait for uploaded file activation
	FilePollIntervalSec int    `json:"file_poll_interval_sec,omitempty"` // Activation poll cadence

	// Extraction
	MaxExtractAttempts int `json:"max_extract_attempts,omitempty"` // Retries for transient extraction failures

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxMediaMB < 0 {
		return fmt.Errorf("config error: 'max_media_mb' must be non-negative")
	}
	if c.DownloadTimeoutSec < 0 {
		return fmt.Errorf("config error: 'download_timeout_sec' must be non-negative")
	}
	if c.SweepIntervalMin < 0 {
		return fmt.Errorf("config error: 'sweep_interval_min' must be non-negative")
	}
	if c.FileWaitTimeoutSec < 0 {
		return fmt.Errorf("config error: 'file_wait_timeout_sec' must be non-negative")
	}
	if c.FilePollIntervalSec < 0 {
		return fmt.Errorf("config error: 'file_poll_interval_sec' must be non-negative")
	}
	if c.MaxExtractAttempts < 0 {
		return fmt.Errorf("config error: 'max_extract_attempts' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.TempDir == "" {
		result.TempDir = defaults.TempDir
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxMediaMB == 0 {
		result.MaxMediaMB = defaults.MaxMediaMB
	}
	if result.DownloadTimeoutSec == 0 {
		result.DownloadTimeoutSec = defaults.DownloadTimeoutSec
	}
	if result.SweepIntervalMin == 0 {
		result.SweepIntervalMin = defaults.SweepIntervalMin
	}
	if result.FileWaitTimeoutSec == 0 {
		result.FileWaitTimeoutSec = defaults.FileWaitTimeoutSec
	}
	if result.FilePollIntervalSec == 0 {
		result.FilePollIntervalSec = defaults.FilePollIntervalSec
	}
	if result.MaxExtractAttempts == 0 {
		result.MaxExtractAttempts = defaults.MaxExtractAttempts
	}

	// Boolean fields: true wins (cannot distinguish false from unset)
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}
