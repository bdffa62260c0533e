// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the dashboard.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	SignInBox   lipgloss.Style
	InputPrompt lipgloss.Style
	Hint        lipgloss.Style

	StatusBar     lipgloss.Style
	StatusActive  lipgloss.Style
	StatusWarning lipgloss.Style
	StatusMuted   lipgloss.Style

	Body lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	return newTheme(profile, termenv.HasDarkBackground())
}

func newTheme(profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.SignInBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 1)

	t.StatusActive = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusWarning = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StatusMuted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Body = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(1, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// NarrowWidth is the column count below which compact layouts are used.
const NarrowWidth = 60

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < NarrowWidth {
		return LayoutNarrow
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutWide
)
