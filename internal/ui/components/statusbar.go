// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alphastream/alphastream-tui/internal/idle"
	"github.com/alphastream/alphastream-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line of the dashboard: who is signed in, the idle
// phase and the time left before expiry.
type StatusBar struct {
	theme *styles.Theme
	width int

	user      string
	phase     idle.Phase
	remaining time.Duration
	enabled   bool
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetWidth sets the rendered width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetUser sets the signed-in user; "" means signed out.
func (s *StatusBar) SetUser(user string) {
	s.user = user
}

// SetSession updates the idle state shown on the right. The monitor only
// recomputes its remaining time during the warning phase, so while active the
// countdown is derived from the last activity.
func (s *StatusBar) SetSession(snap idle.Snapshot, now time.Time) {
	s.phase = snap.Phase
	s.remaining = snap.Remaining
	s.enabled = snap.Enabled
	if snap.Phase == idle.PhaseActive && !snap.LastActivity.IsZero() {
		s.remaining = snap.Timeout - now.Sub(snap.LastActivity)
		if s.remaining < 0 {
			s.remaining = 0
		}
		if s.remaining > snap.Timeout {
			s.remaining = snap.Timeout
		}
	}
}

// View renders the bar.
func (s *StatusBar) View() string {
	left := s.theme.StatusMuted.Render("signed out")
	if s.user != "" {
		left = s.theme.StatusActive.Render(styles.StatusIndicators.Active + " " + s.user)
	}

	right := s.theme.StatusMuted.Render("idle monitor off")
	if s.user != "" && s.enabled {
		label := s.phase.String() + " " + formatTimeRemaining(s.remaining)
		switch s.phase {
		case idle.PhaseWarning:
			right = s.theme.StatusWarning.Render(styles.StatusIndicators.Warning + " " + label)
		case idle.PhaseExpired:
			right = lipgloss.NewStyle().Foreground(styles.Rose).Render(styles.StatusIndicators.Error + " " + label)
		default:
			right = s.theme.StatusActive.Render(label)
		}
	}

	width := s.width
	if width <= 0 {
		width = 80
	}
	inner := width - s.theme.StatusBar.GetHorizontalPadding()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
