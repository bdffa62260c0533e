// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across alphastream.
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - StringWidth: terminal column width of a string
package util
