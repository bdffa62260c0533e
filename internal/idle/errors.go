// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"fmt"
	"time"
)

// ErrInvalidTimeoutConfiguration is returned when a timeout configuration is rejected.
// Use errors.Is(err, ErrInvalidTimeoutConfiguration) to check for this error.
var ErrInvalidTimeoutConfiguration = &ConfigError{Reason: "invalid timeout configuration"}

// ConfigError describes a rejected Timeout/WarningLead pair.
// It implements the error interface and matches ErrInvalidTimeoutConfiguration via errors.Is.
type ConfigError struct {
	Timeout     time.Duration
	WarningLead time.Duration
	Reason      string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Timeout == 0 && e.WarningLead == 0 {
		return e.Reason
	}
	return fmt.Sprintf("invalid timeout configuration: %s (timeout=%v warning_lead=%v)",
		e.Reason, e.Timeout, e.WarningLead)
}

// Is reports whether target is a ConfigError, so every rejection matches the sentinel.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}
