// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable views of the AlphaStream dashboard.
//
// # Components
//
//   - Header: product title and signed-in user
//   - SessionTimeoutOverlay: idle warning countdown and expired notice
//   - StatusBar: signed-in user, idle phase and remaining time
//
// Components hold display state only. The dashboard model feeds them from
// session events and monitor snapshots.
package components
