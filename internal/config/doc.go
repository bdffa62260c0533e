// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates alphastream configuration.
//
// # Key Types
//
//   - Config: the full configuration (session, log, metrics, storage)
//   - SessionConfig: idle timeout, warning lead and activity throttle
//   - Holder: the live configuration, reloaded when the file changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ALPHASTREAM_*)
//   - ~/.alphastream/config.toml
//   - Built-in defaults
//
// Session settings that would make the idle monitor misbehave (a warning
// lead longer than the timeout, for example) are rejected, not clamped.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	monitorCfg := cfg.Session.MonitorConfig()
package config
