// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for steward.
//
// Configuration is read from a TOML file with sensible defaults and
// environment variable overrides. Locations, in order of precedence:
//   - STEWARD_* environment variables
//   - ~/.steward/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete steward configuration.
type Config struct {
	// API configuration for the church backend.
	API APIConfig `toml:"api"`

	// Session configuration (inactivity timeout and warning window).
	Session SessionConfig `toml:"session"`

	// Lockout configuration for the login surface.
	Lockout LockoutConfig `toml:"lockout"`

	// Storage configuration (local data directory).
	Storage StorageConfig `toml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the root of the REST backend, e.g. "https://api.example.org/api".
	BaseURL string `toml:"base_url"`

	// RequestTimeoutSecs is the per-request client timeout in seconds.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// PublicPaths are path prefixes that never carry the credential header.
	PublicPaths []string `toml:"public_paths"`

	// HeartbeatSecs is the interval between presence pings while logged in.
	HeartbeatSecs int `toml:"heartbeat_secs"`
}

// SessionConfig contains the inactivity-timeout contract.
type SessionConfig struct {
	// TimeoutSecs is the inactivity timeout in seconds.
	// Valid range is 300-1800 seconds; values outside are clamped.
	TimeoutSecs int `toml:"timeout_secs"`

	// WarningLeadSecs is how long before expiry the countdown warning
	// becomes visible. Clamped to [10, TimeoutSecs).
	WarningLeadSecs int `toml:"warning_lead_secs"`
}

// LockoutConfig contains the login brute-force lockout policy.
type LockoutConfig struct {
	// MaxAttempts is the number of consecutive failed logins before the
	// login form locks.
	MaxAttempts int `toml:"max_attempts"`

	// CooldownSecs is how long the lock lasts once triggered.
	CooldownSecs int `toml:"cooldown_secs"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	// DataDir is the directory holding the session record, the local
	// database and the credential key. Empty means ~/.steward.
	DataDir string `toml:"data_dir"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Path is the log file path. Empty means <data_dir>/steward.log.
	// The terminal itself belongs to the TUI, so logs never go to stdout.
	Path string `toml:"path"`
}

// =============================================================================
// LIMITS
// =============================================================================

const (
	// MinSessionTimeout is the minimum allowed inactivity timeout.
	MinSessionTimeout = 5 * time.Minute

	// MaxSessionTimeout is the maximum allowed inactivity timeout.
	MaxSessionTimeout = 30 * time.Minute

	// DefaultSessionTimeout is the canonical inactivity timeout (15 minutes).
	DefaultSessionTimeout = 15 * time.Minute

	// DefaultWarningLead is the canonical warning window (60 seconds).
	DefaultWarningLead = 60 * time.Second

	// MinWarningLead is the smallest usable warning window.
	MinWarningLead = 10 * time.Second
)

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "http://localhost:8000/api",
			RequestTimeoutSecs: 15,
			PublicPaths: []string{
				"/login",
				"/members/public",
				"/public-testimonials",
				"/public-events",
			},
			HeartbeatSecs: 30,
		},
		Session: SessionConfig{
			TimeoutSecs:     int(DefaultSessionTimeout.Seconds()),
			WarningLeadSecs: int(DefaultWarningLead.Seconds()),
		},
		Lockout: LockoutConfig{
			MaxAttempts:  7,
			CooldownSecs: 240,
		},
		Storage: StorageConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDataDir returns the default data directory (~/.steward).
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".steward"), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment overrides are applied last
// and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies STEWARD_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STEWARD_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("STEWARD_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("STEWARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STEWARD_SESSION_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.TimeoutSecs = n
		}
	}
	if v := os.Getenv("STEWARD_WARNING_LEAD_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.WarningLeadSecs = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and clamps out-of-range values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme %q is not http or https", u.Scheme)
	}

	if c.API.RequestTimeoutSecs <= 0 {
		c.API.RequestTimeoutSecs = 15
	}
	if c.API.HeartbeatSecs <= 0 {
		c.API.HeartbeatSecs = 30
	}

	// Clamp the session timeout to the valid range.
	timeout := time.Duration(c.Session.TimeoutSecs) * time.Second
	if timeout < MinSessionTimeout {
		timeout = MinSessionTimeout
	}
	if timeout > MaxSessionTimeout {
		timeout = MaxSessionTimeout
	}
	c.Session.TimeoutSecs = int(timeout.Seconds())

	lead := time.Duration(c.Session.WarningLeadSecs) * time.Second
	if lead < MinWarningLead {
		lead = MinWarningLead
	}
	if lead >= timeout {
		lead = DefaultWarningLead
	}
	c.Session.WarningLeadSecs = int(lead.Seconds())

	if c.Lockout.MaxAttempts <= 0 {
		c.Lockout.MaxAttempts = 7
	}
	if c.Lockout.CooldownSecs <= 0 {
		c.Lockout.CooldownSecs = 240
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	case "":
		c.Logging.Level = "info"
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// SessionTimeout returns the inactivity timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutSecs) * time.Second
}

// WarningLead returns the warning window as a duration.
func (c *Config) WarningLead() time.Duration {
	return time.Duration(c.Session.WarningLeadSecs) * time.Second
}

// RequestTimeout returns the per-request client timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// HeartbeatInterval returns the presence-ping interval as a duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.API.HeartbeatSecs) * time.Second
}

// LockoutCooldown returns the login lockout duration.
func (c *Config) LockoutCooldown() time.Duration {
	return time.Duration(c.Lockout.CooldownSecs) * time.Second
}

// ResolveDataDir returns the configured data directory, creating it with
// owner-only permissions if needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.Storage.DataDir
	if dir == "" {
		d, err := DefaultDataDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}
