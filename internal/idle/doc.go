// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle implements the idle session monitor.
//
// A Monitor watches activity signals and walks a three-phase machine:
//
//	ACTIVE --(Timeout-WarningLead idle)--> WARNING --(Timeout idle)--> EXPIRED
//	   ^                                      |
//	   +---------------(activity)-------------+
//
// OnWarning fires once per cycle on entering WARNING, OnExpire once on reaching
// EXPIRED. While in WARNING a one-second tick refreshes Remaining for countdown
// displays; expiry itself is driven only by its own timer.
//
// # Usage
//
//	mon, err := idle.New(idle.Config{
//	    Timeout:        15 * time.Minute,
//	    WarningLead:    time.Minute,
//	    ThrottleWindow: time.Second,
//	    Enabled:        true,
//	    OnWarning:      showCountdown,
//	    OnExpire:       signOut,
//	})
//	if err != nil {
//	    // errors.Is(err, idle.ErrInvalidTimeoutConfiguration)
//	}
//	defer mon.Stop()
//
//	mon.RecordActivity()  // throttled, from raw input
//	mon.ContinueSession() // unthrottled, from the warning prompt
//
// A WarningLead of zero skips the warning phase entirely.
package idle
