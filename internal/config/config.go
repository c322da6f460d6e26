// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/delta-tui/internal/model"
	"github.com/jeranaias/delta-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete delta-tui configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig contains Gemini API configuration.
type APIConfig struct {
	// Key is the Gemini API key
	Key string `toml:"key"`
	// BaseURL overrides the API endpoint (empty = production endpoint)
	BaseURL string `toml:"base_url"`
	// DefaultModel is the model used when settings carry no override
	DefaultModel string `toml:"default_model"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// DatabasePath is where the SQLite snapshot database lives
	// (empty = ~/.delta/delta.db)
	DatabasePath string `toml:"database_path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// Path is the log file path (empty = ~/.delta/delta.log)
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS & PATHS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			DefaultModel: model.DefaultModel,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the delta-tui configuration directory (~/.delta).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".delta"), nil
}

// Path returns the config file path, honoring the DELTA_CONFIG override.
func Path() (string, error) {
	if p := os.Getenv("DELTA_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the snapshot database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "delta.db"), nil
}

// LogPath resolves the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "delta.log"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, applies environment overrides, and validates.
// A missing file is not an error: defaults plus env overrides are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load against an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration atomically with owner-only permissions
// (the file may carry an API key).
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// ApplyEnvOverrides applies environment variables over file/default values.
// GEMINI_API_KEY is honored as a fallback for DELTA_API_KEY since the
// official SDKs use it.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DELTA_API_KEY"); v != "" {
		c.API.Key = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.API.Key == "" {
		c.API.Key = v
	}
	if v := os.Getenv("DELTA_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DELTA_MODEL"); v != "" {
		c.API.DefaultModel = v
	}
	if v := os.Getenv("DELTA_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("DELTA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DELTA_LOG_PATH"); v != "" {
		c.Logging.Path = v
	}
}

// SetDefaults fills empty fields with built-in defaults.
func (c *Config) SetDefaults() {
	if c.API.DefaultModel == "" {
		c.API.DefaultModel = model.DefaultModel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ValidationError describes one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// Validate checks field values. It does not require an API key: a missing
// key is surfaced at send time, not startup.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ValidationError{
			Field:   "logging.level",
			Message: "must be one of debug, info, warn, error (got " + strconv.Quote(c.Logging.Level) + ")",
		}
	}
	return nil
}
