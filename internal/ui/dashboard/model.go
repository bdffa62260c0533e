// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard is the top-level Bubble Tea model: a sign-in prompt, the
// signed-in view with its status bar, and the idle timeout overlay.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/alphastream/alphastream-tui/internal/activity"
	"github.com/alphastream/alphastream-tui/internal/clock"
	"github.com/alphastream/alphastream-tui/internal/session"
	"github.com/alphastream/alphastream-tui/internal/ui/components"
	"github.com/alphastream/alphastream-tui/internal/ui/styles"
)

// RefreshInterval is how often the status bar is redrawn.
const RefreshInterval = time.Second

// =============================================================================
// STATE
// =============================================================================

// State represents the current screen.
type State int

const (
	StateSignIn    State = iota // Sign-in prompt
	StateDashboard              // Signed-in view
)

// refreshMsg redraws the status bar.
type refreshMsg time.Time

// Options configures the dashboard model.
type Options struct {
	Context    context.Context
	Controller *session.Controller
	Bus        *activity.Bus
	Events     *EventSink
	Theme      *styles.Theme
	Clock      clock.Clock
	Logger     zerolog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Session plumbing
	ctx    context.Context
	ctrl   *session.Controller
	bus    *activity.Bus
	events *EventSink
	clock  clock.Clock
	logger zerolog.Logger

	// Views
	input   textinput.Model
	header  *components.Header
	overlay components.SessionTimeoutOverlay
	status  *components.StatusBar

	// Display state
	user      string
	sessionID string
	notice    string
	err       error
	quitting  bool
}

// New creates the dashboard. A session restored before the program starts
// opens straight into the signed-in view.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	events := opts.Events
	if events == nil {
		events = NewEventSink(DefaultEventBuffer)
	}

	input := textinput.New()
	input.Placeholder = "user name"
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 64
	input.Width = 32
	input.Focus()

	m := Model{
		state:   StateSignIn,
		theme:   theme,
		ctx:     ctx,
		ctrl:    opts.Controller,
		bus:     opts.Bus,
		events:  events,
		clock:   clk,
		logger:  opts.Logger,
		input:   input,
		header:  components.NewHeader(theme),
		overlay: components.NewSessionTimeoutOverlay(),
		status:  components.NewStatusBar(theme),
	}
	if creds, ok := m.ctrl.State().Current(); ok {
		m.enterDashboard(creds.User, creds.SessionID)
	}
	m.syncStatus()
	return m
}

// State returns the current screen.
func (m Model) State() State {
	return m.state
}

// Init starts listening for session events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.events.Wait(), m.refresh())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages. Every key and mouse message is published to the
// activity bus before it is handled.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ev, ok := activity.FromMsg(msg, m.clock.Now()); ok && m.bus != nil {
		m.bus.Publish(ev)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.overlay.SetSize(msg.Width, msg.Height)
		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case SessionEventMsg:
		m.handleSessionEvent(session.Event(msg))
		return m, m.events.Wait()

	case components.SessionExtendedMsg:
		m.ctrl.ContinueSession(m.ctx)
		m.syncStatus()
		return m, nil

	case components.SessionExpiredAckMsg:
		m.input.Focus()
		return m, textinput.Blink

	case refreshMsg:
		m.syncStatus()
		return m, m.refresh()
	}

	if m.state == StateSignIn {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	// The overlay swallows the key that answers it.
	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	switch m.state {
	case StateSignIn:
		if msg.Type == tea.KeyEnter {
			m.signIn()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case StateDashboard:
		switch msg.String() {
		case "l":
			if err := m.ctrl.SignOut(m.ctx, session.ReasonLogout); err != nil {
				m.err = err
			}
			m.enterSignIn()
			m.notice = "Signed out."
			m.syncStatus()
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) signIn() {
	user := strings.TrimSpace(m.input.Value())
	if user == "" {
		m.err = errors.New("enter a user name")
		return
	}
	if err := m.ctrl.SignIn(m.ctx, user); err != nil {
		m.err = err
		m.logger.Warn().Err(err).Str("event", "ui.sign_in_failed").Msg("sign-in failed")
		return
	}
	creds, _ := m.ctrl.State().Current()
	m.enterDashboard(creds.User, creds.SessionID)
	m.syncStatus()
}

func (m *Model) handleSessionEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventSignedIn:
		m.enterDashboard(ev.User, ev.SessionID)

	case session.EventWarning:
		m.overlay.SetSize(m.width, m.height)
		m.overlay.SetWarningLead(m.ctrl.Monitor().Snapshot().WarningLead)
		m.overlay.Show(ev.Remaining)

	case session.EventTick:
		if m.overlay.IsVisible() && !m.overlay.IsExpired() {
			m.overlay.UpdateTime(ev.Remaining)
		}

	case session.EventContinued:
		if !m.overlay.IsExpired() {
			m.overlay.Hide()
		}

	case session.EventSignedOut:
		m.enterSignIn()
		if ev.Reason == session.ReasonIdleTimeout {
			m.overlay.SetSize(m.width, m.height)
			m.overlay.Expire()
			m.notice = "Signed out after inactivity."
		} else {
			m.overlay.Hide()
			m.notice = "Signed out."
		}
	}
	m.syncStatus()
}

func (m *Model) enterDashboard(user, sessionID string) {
	m.state = StateDashboard
	m.user = user
	m.sessionID = sessionID
	m.err = nil
	m.notice = ""
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) enterSignIn() {
	m.state = StateSignIn
	m.user = ""
	m.sessionID = ""
	m.input.Reset()
	m.input.Focus()
}

func (m *Model) syncStatus() {
	m.header.SetUser(m.user)
	m.status.SetUser(m.user)
	m.status.SetSession(m.ctrl.Monitor().Snapshot(), m.clock.Now())
}

func (m Model) refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	header := m.header.View()

	var body string
	if m.state == StateSignIn {
		body = m.viewSignIn()
	} else {
		body = m.viewDashboard()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if m.height > 0 {
		gap := m.height - lipgloss.Height(content) - 1
		if gap > 0 {
			content += strings.Repeat("\n", gap)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, m.status.View())
}

func (m Model) viewSignIn() string {
	var parts []string
	parts = append(parts, m.theme.HeaderTitle.Render("Sign in"), "")
	parts = append(parts, m.input.View())
	if m.err != nil {
		parts = append(parts, "", styles.RenderError(m.err.Error()))
	} else if m.notice != "" {
		parts = append(parts, "", styles.RenderWarning(m.notice))
	}
	parts = append(parts, "", m.theme.Hint.Render("enter sign in - ctrl+c quit"))
	return m.theme.Body.Render(m.theme.SignInBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
}

func (m Model) viewDashboard() string {
	var parts []string
	parts = append(parts, styles.RenderSuccess("Signed in as "+m.user))
	parts = append(parts, m.theme.StatusMuted.Render("session "+m.sessionID))
	if creds, ok := m.ctrl.State().Current(); ok {
		parts = append(parts, m.theme.StatusMuted.Render("since "+creds.SignedInAt.Local().Format("15:04:05")))
	}
	if m.err != nil {
		parts = append(parts, "", styles.RenderError(m.err.Error()))
	}
	parts = append(parts, "", m.theme.Hint.Render("l sign out - q quit"))
	return m.theme.Body.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
