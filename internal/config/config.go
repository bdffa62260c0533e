// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for alphastream.
//
// Configuration is read from TOML, layered over built-in defaults, then
// overridden by environment variables and validated.
//
// Configuration file location:
//   - ~/.alphastream/config.toml
//   - Built-in defaults when the file does not exist
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alphastream/alphastream-tui/internal/idle"
	"github.com/alphastream/alphastream-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete alphastream configuration.
type Config struct {
	// Session idle monitoring
	Session SessionConfig `toml:"session" json:"session"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// Prometheus endpoint
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`

	// File locations
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// SessionConfig contains idle session monitor settings.
type SessionConfig struct {
	// IdleTimeoutSecs is the inactivity budget before the session is signed out.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
	// WarningLeadSecs is how long before the timeout the countdown appears. 0 disables the warning.
	WarningLeadSecs int `toml:"warning_lead_secs" json:"warning_lead_secs"`
	// ActivityThrottleMs coalesces bursts of input into one reset. 0 disables coalescing.
	ActivityThrottleMs int `toml:"activity_throttle_ms" json:"activity_throttle_ms"`
	// Enabled turns idle monitoring on for signed-in users.
	Enabled bool `toml:"enabled" json:"enabled"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Path is the log file (empty = ~/.alphastream/alphastream.log)
	Path string `toml:"path" json:"path"`
}

// MetricsConfig contains the metrics listener settings.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `toml:"addr" json:"addr"`
}

// StorageConfig contains file locations.
type StorageConfig struct {
	// CredentialsPath is the persisted sign-in record (empty = ~/.alphastream/credentials.json)
	CredentialsPath string `toml:"credentials_path" json:"credentials_path"`
	// AuditPath is the SQLite audit trail (empty = ~/.alphastream/audit.db)
	AuditPath string `toml:"audit_path" json:"audit_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			IdleTimeoutSecs:    int(idle.DefaultTimeout / time.Second),
			WarningLeadSecs:    int(idle.DefaultWarningLead / time.Second),
			ActivityThrottleMs: int(idle.DefaultThrottleWindow / time.Millisecond),
			Enabled:            true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the idle timeout as a duration.
func (s SessionConfig) Timeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}

// WarningLead returns the warning lead as a duration.
func (s SessionConfig) WarningLead() time.Duration {
	return time.Duration(s.WarningLeadSecs) * time.Second
}

// ThrottleWindow returns the activity throttle window as a duration.
func (s SessionConfig) ThrottleWindow() time.Duration {
	return time.Duration(s.ActivityThrottleMs) * time.Millisecond
}

// MonitorConfig converts the settings into an idle.Config without callbacks.
func (s SessionConfig) MonitorConfig() idle.Config {
	return idle.Config{
		Timeout:        s.Timeout(),
		WarningLead:    s.WarningLead(),
		ThrottleWindow: s.ThrottleWindow(),
		Enabled:        s.Enabled,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.alphastream.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".alphastream"), nil
}

// DefaultPath returns ~/.alphastream/config.toml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolvePaths fills empty file locations with their defaults under dir.
func (c *Config) ResolvePaths(dir string) {
	if c.Storage.CredentialsPath == "" {
		c.Storage.CredentialsPath = filepath.Join(dir, "credentials.json")
	}
	if c.Storage.AuditPath == "" {
		c.Storage.AuditPath = filepath.Join(dir, "audit.db")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "alphastream.log")
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration at path. An empty path means DefaultPath.
// A missing file yields the defaults. Environment overrides and validation
// are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.ResolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML with owner-only permissions.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# alphastream configuration file")
	fmt.Fprintln(&buf, "")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - ALPHASTREAM_IDLE_TIMEOUT_SECS: overrides session.idle_timeout_secs
//   - ALPHASTREAM_WARNING_LEAD_SECS: overrides session.warning_lead_secs
//   - ALPHASTREAM_ACTIVITY_THROTTLE_MS: overrides session.activity_throttle_ms
//   - ALPHASTREAM_IDLE_ENABLED: overrides session.enabled
//   - ALPHASTREAM_LOG_LEVEL: overrides log.level
//   - ALPHASTREAM_METRICS_ADDR: overrides metrics.addr
func (c *Config) ApplyEnvOverrides() {
	if v, ok := envInt("ALPHASTREAM_IDLE_TIMEOUT_SECS"); ok {
		c.Session.IdleTimeoutSecs = v
	}
	if v, ok := envInt("ALPHASTREAM_WARNING_LEAD_SECS"); ok {
		c.Session.WarningLeadSecs = v
	}
	if v, ok := envInt("ALPHASTREAM_ACTIVITY_THROTTLE_MS"); ok {
		c.Session.ActivityThrottleMs = v
	}
	if enabled := os.Getenv("ALPHASTREAM_IDLE_ENABLED"); enabled != "" {
		c.Session.Enabled = enabled == "1" || strings.ToLower(enabled) == "true"
	}
	if level := os.Getenv("ALPHASTREAM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if addr := os.Getenv("ALPHASTREAM_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes each validation error to errors.Is and errors.As.
func (e ValidateErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, v := range e {
		errs[i] = v
	}
	return errs
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := c.Session.MonitorConfig().Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "session",
			Message: err.Error(),
			Err:     err,
		})
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if c.Log.Level != "" && !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return buf.String()
}
