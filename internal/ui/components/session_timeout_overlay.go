// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alphastream/alphastream-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay displays the idle warning countdown and the expired notice.
// It holds no timers; the owner pushes the remaining time on every monitor tick.
type SessionTimeoutOverlay struct {
	// State
	visible       bool
	timeRemaining time.Duration
	expired       bool

	// lead is the full warning window, used to scale the countdown bar.
	lead time.Duration

	// Dimensions
	width  int
	height int
}

// NewSessionTimeoutOverlay creates a hidden overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetWarningLead sets the length of the warning window.
func (o *SessionTimeoutOverlay) SetWarningLead(lead time.Duration) {
	o.lead = lead
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays the warning with the given time remaining.
func (o *SessionTimeoutOverlay) Show(remaining time.Duration) {
	o.visible = true
	o.expired = false
	o.timeRemaining = remaining
}

// Expire switches the overlay to the expired notice.
func (o *SessionTimeoutOverlay) Expire() {
	o.visible = true
	o.expired = true
	o.timeRemaining = 0
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// UpdateTime updates the countdown.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	o.timeRemaining = remaining
}

// IsVisible returns whether the overlay is currently visible.
func (o *SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the overlay shows the expired notice.
func (o *SessionTimeoutOverlay) IsExpired() bool {
	return o.expired
}

// TimeRemaining returns the current time remaining.
func (o *SessionTimeoutOverlay) TimeRemaining() time.Duration {
	return o.timeRemaining
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionExtendedMsg signals the user answered the warning with a key press.
type SessionExtendedMsg struct{}

// SessionExpiredAckMsg signals the user dismissed the expired notice.
type SessionExpiredAckMsg struct{}

// Init initializes the overlay (no-op for overlays).
func (o SessionTimeoutOverlay) Init() tea.Cmd {
	return nil
}

// Update handles messages for the overlay.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible {
			return o, nil
		}
		expired := o.expired
		o.Hide()
		if expired {
			return o, func() tea.Msg { return SessionExpiredAckMsg{} }
		}
		return o, func() tea.Msg { return SessionExtendedMsg{} }
	}

	return o, nil
}

// View renders the overlay, or "" while hidden.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o SessionTimeoutOverlay) dims() (width, height, maxWidth int) {
	width = o.width
	if width == 0 {
		width = 60
	}
	height = o.height
	if height == 0 {
		height = 24
	}
	maxWidth = width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}
	return width, height, maxWidth
}

func (o SessionTimeoutOverlay) viewWarning() string {
	width, height, maxWidth := o.dims()

	var parts []string

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Warning+" Are you still there?"))
	parts = append(parts, "")

	timeStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"You will be signed out in "+timeStyle.Render(formatTimeRemaining(o.timeRemaining))))

	if o.lead > 0 {
		percent := float64(o.timeRemaining) / float64(o.lead) * 100
		barStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		parts = append(parts, "", barStyle.Render(styles.RenderProgressBar(maxWidth-10, percent)))
	}

	parts = append(parts, "")
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to stay signed in"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Amber).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

func (o SessionTimeoutOverlay) viewExpired() string {
	width, height, maxWidth := o.dims()

	var parts []string

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Error+" Session Expired"))
	parts = append(parts, "")

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render("You were signed out after a period of inactivity."))
	parts = append(parts, "")

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to sign in again"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimeRemaining formats a duration as M:SS. Partial seconds round up so
// the countdown never shows 0:00 while time is left.
func formatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}

	totalSecs := int((d + time.Second - 1) / time.Second)
	mins := totalSecs / 60
	secs := totalSecs % 60

	return fmt.Sprintf("%d:%02d", mins, secs)
}
