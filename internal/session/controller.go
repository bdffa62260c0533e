// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphastream/alphastream-tui/internal/activity"
	"github.com/alphastream/alphastream-tui/internal/audit"
	"github.com/alphastream/alphastream-tui/internal/clock"
	"github.com/alphastream/alphastream-tui/internal/config"
	"github.com/alphastream/alphastream-tui/internal/idle"
	"github.com/alphastream/alphastream-tui/internal/metrics"
)

// EndReason says why a session ended.
type EndReason string

const (
	ReasonLogout      EndReason = "logout"
	ReasonIdleTimeout EndReason = "idle_timeout"
	ReasonShutdown    EndReason = "shutdown"
)

// EventKind classifies controller notifications.
type EventKind int

const (
	EventSignedIn EventKind = iota
	EventWarning
	EventTick
	EventContinued // warning ended without expiry
	EventSignedOut
)

// Event is a session lifecycle notification for the UI.
type Event struct {
	Kind      EventKind
	User      string
	SessionID string
	Remaining time.Duration
	Reason    EndReason
	Restored  bool
}

// Options configures a Controller.
type Options struct {
	State   *State
	Bus     *activity.Bus
	Session config.SessionConfig
	Audit   audit.Recorder
	Logger  zerolog.Logger
	Clock   clock.Clock
	OnEvent func(Event)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller ties the signed-in state to the idle monitor. The monitor runs only
// while someone is signed in and is subscribed to the activity bus for exactly
// that long. Idle expiry signs the user out.
type Controller struct {
	mu sync.Mutex

	state   *State
	bus     *activity.Bus
	monitor *idle.Monitor
	audit   audit.Recorder
	logger  zerolog.Logger
	onEvent func(Event)

	settings    config.SessionConfig
	unsubscribe func()
}

// NewController creates a controller. The monitor starts disabled.
func NewController(opts Options) (*Controller, error) {
	c := &Controller{
		state:    opts.State,
		bus:      opts.Bus,
		audit:    opts.Audit,
		logger:   opts.Logger,
		onEvent:  opts.OnEvent,
		settings: opts.Session,
	}
	if c.bus == nil {
		c.bus = activity.NewBus()
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	mon, err := idle.New(c.monitorConfig(opts.Session, false),
		idle.WithClock(clk),
		idle.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	c.monitor = mon
	return c, nil
}

// Monitor exposes the idle monitor for read-only observation.
func (c *Controller) Monitor() *idle.Monitor {
	return c.monitor
}

// State returns the session state.
func (c *Controller) State() *State {
	return c.state
}

// Start restores a persisted session, if any, and starts monitoring it.
func (c *Controller) Start(ctx context.Context) error {
	restored, err := c.state.Init()
	if err != nil {
		return err
	}
	if !restored {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	creds, _ := c.state.Current()
	c.beginLocked()

	c.logger.Info().
		Str("event", "session.restored").
		Str("session_id", creds.SessionID).
		Str("user", creds.User).
		Msg("session restored from stored credentials")
	c.record(ctx, audit.EventStarted, map[string]string{"restored": "true"})
	metrics.RecordSessionStarted()
	c.emit(Event{Kind: EventSignedIn, User: creds.User, SessionID: creds.SessionID, Restored: true})
	return nil
}

// SignIn authenticates user and starts idle monitoring.
func (c *Controller) SignIn(ctx context.Context, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	creds, err := c.state.SignIn(user)
	if err != nil {
		return err
	}
	c.beginLocked()

	c.logger.Info().
		Str("event", "session.signed_in").
		Str("session_id", creds.SessionID).
		Str("user", creds.User).
		Msg("user signed in")
	c.record(ctx, audit.EventStarted, nil)
	metrics.RecordSessionStarted()
	c.emit(Event{Kind: EventSignedIn, User: creds.User, SessionID: creds.SessionID})
	return nil
}

// SignOut ends the session, stops monitoring and clears stored credentials.
func (c *Controller) SignOut(ctx context.Context, reason EndReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signOutLocked(ctx, reason)
}

func (c *Controller) signOutLocked(ctx context.Context, reason EndReason) error {
	c.endLocked()

	creds, err := c.state.SignOut()
	if creds.SessionID == "" {
		return err
	}

	eventType := audit.EventEnded
	if reason == ReasonIdleTimeout {
		eventType = audit.EventExpired
	}
	c.recordFor(ctx, creds.SessionID, creds.User, eventType, map[string]string{"reason": string(reason)})
	metrics.RecordSessionEnded(string(reason))

	c.logger.Info().
		Str("event", "session.signed_out").
		Str("session_id", creds.SessionID).
		Str("reason", string(reason)).
		Msg("user signed out")
	c.emit(Event{Kind: EventSignedOut, User: creds.User, SessionID: creds.SessionID, Reason: reason})
	return err
}

// ContinueSession is the user's answer to the idle warning.
func (c *Controller) ContinueSession(ctx context.Context) {
	if !c.state.SignedIn() {
		return
	}
	wasWarning := c.monitor.Phase() == idle.PhaseWarning
	c.monitor.ContinueSession()
	if wasWarning {
		c.extended(ctx, "continue")
	}
}

// Reconfigure applies new session settings. Unchanged settings are a no-op;
// otherwise the monitor is fully reset, and a pending warning is reported as
// continued so the UI can dismiss it.
func (c *Controller) Reconfigure(settings config.SessionConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if settings == c.settings {
		return nil
	}
	wasWarning := c.monitor.Phase() == idle.PhaseWarning
	if err := c.monitor.Configure(c.monitorConfig(settings, c.state.SignedIn())); err != nil {
		return err
	}
	c.settings = settings
	if !settings.Enabled && c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	} else if settings.Enabled && c.state.SignedIn() && c.unsubscribe == nil {
		c.unsubscribe = c.bus.Subscribe(c.handleActivity)
	}

	c.logger.Info().
		Str("event", "session.reconfigured").
		Int("idle_timeout_secs", settings.IdleTimeoutSecs).
		Int("warning_lead_secs", settings.WarningLeadSecs).
		Bool("enabled", settings.Enabled).
		Msg("idle settings applied")
	if wasWarning && c.state.SignedIn() {
		c.extended(context.Background(), "reconfigure")
	}
	return nil
}

// Close stops monitoring without signing out, so the session can be restored next run.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked()
	c.monitor.Stop()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Controller) monitorConfig(settings config.SessionConfig, signedIn bool) idle.Config {
	cfg := settings.MonitorConfig()
	cfg.Enabled = settings.Enabled && signedIn
	cfg.OnWarning = c.handleWarning
	cfg.OnExpire = c.handleExpire
	cfg.OnTick = c.handleTick
	return cfg
}

// beginLocked arms the monitor and subscribes it to activity.
func (c *Controller) beginLocked() {
	if !c.settings.Enabled {
		return
	}
	c.monitor.SetEnabled(true)
	if c.unsubscribe == nil {
		c.unsubscribe = c.bus.Subscribe(c.handleActivity)
	}
}

// endLocked disarms the monitor and unsubscribes it from activity.
func (c *Controller) endLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.monitor.SetEnabled(false)
}

func (c *Controller) handleActivity(ev activity.Event) {
	wasWarning := c.monitor.Phase() == idle.PhaseWarning
	reset := c.monitor.RecordActivity()
	metrics.RecordActivity(ev.Kind.String(), reset)
	if reset && wasWarning {
		c.extended(context.Background(), ev.Kind.String())
	}
}

// extended reports a warning that was answered before expiry.
func (c *Controller) extended(ctx context.Context, cause string) {
	c.record(ctx, audit.EventExtended, map[string]string{
		"cause":   cause,
		"timeout": c.monitor.Snapshot().Timeout.String(),
	})
	metrics.RecordIdleExtension()
	creds, _ := c.state.Current()
	c.emit(Event{Kind: EventContinued, User: creds.User, SessionID: creds.SessionID, Remaining: c.monitor.Remaining()})
}

func (c *Controller) handleWarning() {
	remaining := c.monitor.Remaining()
	c.record(context.Background(), audit.EventWarning, map[string]string{"remaining": remaining.String()})
	metrics.RecordIdleWarning()
	creds, _ := c.state.Current()
	c.emit(Event{Kind: EventWarning, User: creds.User, SessionID: creds.SessionID, Remaining: remaining})
}

func (c *Controller) handleTick(remaining time.Duration) {
	c.emit(Event{Kind: EventTick, Remaining: remaining})
}

// handleExpire signs out the session whose cycle expired. A sign-out, sign-in
// or reset that lands between the timer and this callback moves the monitor
// out of the expired phase, and the session then in place is left alone.
func (c *Controller) handleExpire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.monitor.Phase() != idle.PhaseExpired {
		c.logger.Debug().Str("event", "session.expire_stale").Msg("ignoring expiry for a superseded cycle")
		return
	}
	if err := c.signOutLocked(context.Background(), ReasonIdleTimeout); err != nil {
		c.logger.Error().Err(err).Str("event", "session.expire_failed").Msg("idle sign-out failed")
	}
}

func (c *Controller) record(ctx context.Context, eventType string, meta map[string]string) {
	creds, _ := c.state.Current()
	c.recordFor(ctx, creds.SessionID, creds.User, eventType, meta)
}

func (c *Controller) recordFor(ctx context.Context, sessionID, user, eventType string, meta map[string]string) {
	if c.audit == nil {
		return
	}
	err := c.audit.Record(ctx, audit.Event{
		SessionID: sessionID,
		User:      user,
		Type:      eventType,
		Metadata:  meta,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("event", "session.audit_failed").Str("type", eventType).Msg("audit write failed")
	}
}

func (c *Controller) emit(ev Event) {
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}
