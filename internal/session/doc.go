// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the signed-in user and drives the idle monitor for them.
//
// # Key Types
//
//   - State: who is signed in, restored from stored credentials at startup
//   - Controller: enables the idle monitor on sign-in, disables it on sign-out,
//     and signs the user out when the monitor expires
//   - Event: lifecycle notifications for the UI
//
// # Usage
//
//	state := session.NewState(storage.NewCredentialStoreAt(path), nil)
//	ctrl, err := session.NewController(session.Options{
//	    State:   state,
//	    Bus:     bus,
//	    Session: cfg.Session,
//	    Audit:   auditStore,
//	    OnEvent: func(ev session.Event) { program.Send(ev) },
//	})
//	if err := ctrl.Start(ctx); err != nil {
//	    // stored credentials were unreadable
//	}
//	defer ctrl.Close()
package session
