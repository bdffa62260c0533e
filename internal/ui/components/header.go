// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alphastream/alphastream-tui/internal/ui/styles"
	"github.com/alphastream/alphastream-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// maxHeaderUser is the widest user name shown in the header.
const maxHeaderUser = 24

// Header is the title bar: the product name and who is signed in.
type Header struct {
	Title string
	User  string // "" when signed out
	Width int
	theme *styles.Theme
}

// NewHeader creates a Header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "AlphaStream",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetUser updates the signed-in user.
func (h *Header) SetUser(user string) {
	h.User = user
}

// View renders the header, falling back to the compact form on narrow terminals.
func (h *Header) View() string {
	if h.Width < styles.NarrowWidth {
		return h.ViewCompact()
	}

	width := h.Width
	innerWidth := width - 6

	accent := lipgloss.NewStyle().Foreground(styles.Emerald)
	brand := accent.Render("< ") + h.theme.HeaderTitle.Render(h.Title) + accent.Render(" >")

	brandLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(brand)

	subtitleLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Foreground(styles.TextMuted).
		Render(h.subtitle())

	content := lipgloss.JoinVertical(lipgloss.Center, brandLine, subtitleLine)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Cyan).
		Padding(0, 2).
		Width(width - 2).
		Render(content)
}

// ViewCompact renders a single line: < AlphaStream > | user | [SIGNED IN]
func (h *Header) ViewCompact() string {
	sep := lipgloss.NewStyle().Foreground(styles.TextMuted).Render(" | ")
	line := h.theme.HeaderTitle.Render("< "+h.Title+" >") + sep + h.subtitle()

	width := h.Width
	if width <= 0 {
		width = 40
	}
	return h.theme.Header.Width(width).Render(line)
}

func (h *Header) subtitle() string {
	var parts []string
	if h.User != "" {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(util.TruncateWidth(h.User, maxHeaderUser)),
			h.theme.StatusActive.Render("[SIGNED IN]"))
	} else {
		parts = append(parts, h.theme.StatusMuted.Render("[SIGNED OUT]"))
	}
	return strings.Join(parts, " ")
}
