// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the AlphaStream dashboard.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal detection.

# Color System (colors.go)

  - Cyan - Brand color, header and focused input
  - Emerald - Signed-in and active session indicators
  - Amber - Idle warning overlay and countdown
  - Rose - Expired sessions and errors

Status messages always carry an ASCII indicator next to the color so they stay
readable for colorblind users:

	styles.RenderWarning("Session will expire soon") // "[!] Session will expire soon"

# Theme (theme.go)

NewTheme detects the terminal color profile with termenv and builds the
dashboard styles once. Views take the theme by pointer.

# Progress (progress.go)

RenderProgressBar draws the ASCII countdown bar used by the idle warning.
*/
package styles
