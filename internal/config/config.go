// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/innerbloo/RALLY-sub001/internal/store"
	"github.com/innerbloo/RALLY-sub001/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rally configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Completion service configuration
	Completion CompletionConfig `toml:"completion" json:"completion"`

	// Logging configuration
	Log LogConfig `toml:"log" json:"log"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// StorageConfig controls where and how conversation state persists.
type StorageConfig struct {
	// Backend selects the store implementation: "file" or "sqlite".
	Backend string `toml:"backend" json:"backend"`
	// Dir is the data directory (empty = ~/.rally/data).
	Dir string `toml:"dir" json:"dir"`
	// WatchEnabled reloads the directory when another process writes the store.
	WatchEnabled bool `toml:"watch_enabled" json:"watch_enabled"`
}

// CompletionConfig points at the reply service.
type CompletionConfig struct {
	// BaseURL is the completion service base URL.
	BaseURL string `toml:"base_url" json:"base_url"`
	// ChunkTimeoutSecs is the per-chunk silence budget for streams.
	ChunkTimeoutSecs int `toml:"chunk_timeout_secs" json:"chunk_timeout_secs"`
	// RequestsPerSecond caps the outgoing request rate.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level"`
	// File is the log file path (empty = ~/.rally/rally.log).
	File string `toml:"file" json:"file"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
	// ShowTimestamps renders a timestamp next to every message.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// RenderMarkdown renders assistant replies through the markdown renderer.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with all default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Storage: StorageConfig{
			Backend:      store.BackendFile,
			WatchEnabled: true,
		},
		Completion: CompletionConfig{
			BaseURL:           "http://127.0.0.1:11434",
			ChunkTimeoutSecs:  60,
			RequestsPerSecond: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
			RenderMarkdown: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the rally configuration directory (~/.rally).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rally"), nil
}

// DataDir returns the effective data directory for the given config.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// LogFile returns the effective log file path for the given config.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rally.log"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default locations, preferring TOML over
// JSON, and falls back to defaults when no file exists. Environment
// overrides apply last.
func Load() (*Config, error) {
	cfg := Default()

	dir, err := ConfigDir()
	if err == nil {
		tomlPath := filepath.Join(dir, "config.toml")
		jsonPath := filepath.Join(dir, "config.json")
		switch {
		case fileExists(tomlPath):
			if err := loadTOML(cfg, tomlPath); err != nil {
				return nil, err
			}
		case fileExists(jsonPath):
			if err := loadJSON(cfg, jsonPath); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads configuration from an explicit file; the extension
// picks the format.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = loadTOML(cfg, path)
	case ".json":
		err = loadJSON(cfg, path)
	default:
		return nil, errors.New("config: unsupported format: " + path)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.New("config: parse " + path + ": " + err.Error())
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errors.New("config: parse " + path + ": " + err.Error())
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration as TOML to the default location.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return SaveTOML(cfg, filepath.Join(dir, "config.toml"))
}

// SaveTOML writes the configuration as TOML to the given path.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, []byte(buf.String()), 0o600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies RALLY_* environment variables over the loaded
// configuration. Unset variables leave the file values alone.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RALLY_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("RALLY_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("RALLY_COMPLETION_URL"); v != "" {
		c.Completion.BaseURL = v
	}
	if v := os.Getenv("RALLY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RALLY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("RALLY_CHUNK_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Completion.ChunkTimeoutSecs = secs
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", store.BackendFile, store.BackendSQLite:
	default:
		return ValidationError{Field: "storage.backend", Message: "must be \"file\" or \"sqlite\""}
	}

	if c.Completion.BaseURL != "" {
		u, err := url.Parse(c.Completion.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Field: "completion.base_url", Message: "must be an absolute URL"}
		}
	}
	if c.Completion.ChunkTimeoutSecs < 0 {
		return ValidationError{Field: "completion.chunk_timeout_secs", Message: "must not be negative"}
	}
	if c.Completion.RequestsPerSecond < 0 {
		return ValidationError{Field: "completion.requests_per_second", Message: "must not be negative"}
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return ValidationError{Field: "log.level", Message: "must be debug, info, warn or error"}
	}

	switch c.UI.Theme {
	case "", "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be \"dark\" or \"light\""}
	}
	return nil
}
