// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphastream/alphastream-tui/internal/clock"
)

// Defaults for a dashboard session.
const (
	// DefaultTimeout is the inactivity budget before a session expires.
	DefaultTimeout = 15 * time.Minute

	// DefaultWarningLead is how long before expiry the warning fires.
	DefaultWarningLead = time.Minute

	// DefaultThrottleWindow coalesces bursts of activity signals.
	DefaultThrottleWindow = time.Second

	// TickInterval is the countdown refresh rate while in the warning phase.
	TickInterval = time.Second
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the monitor's lifecycle state.
type Phase int

const (
	// PhaseActive means the user is considered present.
	PhaseActive Phase = iota
	// PhaseWarning means expiry is WarningLead away or less.
	PhaseWarning
	// PhaseExpired means the inactivity budget ran out.
	PhaseExpired
)

// String returns a string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "ACTIVE"
	case PhaseWarning:
		return "WARNING"
	case PhaseExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// Config configures a Monitor.
type Config struct {
	// Timeout is the total inactivity budget before expiry.
	Timeout time.Duration

	// WarningLead is how long before expiry the warning fires. Zero skips the warning phase.
	WarningLead time.Duration

	// ThrottleWindow coalesces activity signals. Zero disables coalescing.
	ThrottleWindow time.Duration

	// Enabled turns monitoring on. A disabled monitor produces no signals.
	Enabled bool

	// OnWarning fires once per cycle on entering the warning phase.
	OnWarning func()

	// OnExpire fires once when a cycle reaches expiry without activity.
	OnExpire func()

	// OnTick fires on every countdown tick while in the warning phase.
	OnTick func(remaining time.Duration)
}

// DefaultConfig returns an enabled configuration with dashboard defaults and no callbacks.
func DefaultConfig() Config {
	return Config{
		Timeout:        DefaultTimeout,
		WarningLead:    DefaultWarningLead,
		ThrottleWindow: DefaultThrottleWindow,
		Enabled:        true,
	}
}

// Validate rejects configurations the monitor cannot honour. Bad values are never clamped.
func (c Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return &ConfigError{Timeout: c.Timeout, WarningLead: c.WarningLead, Reason: "timeout must be positive"}
	case c.WarningLead < 0:
		return &ConfigError{Timeout: c.Timeout, WarningLead: c.WarningLead, Reason: "warning lead must not be negative"}
	case c.WarningLead > c.Timeout:
		return &ConfigError{Timeout: c.Timeout, WarningLead: c.WarningLead, Reason: "warning lead exceeds timeout"}
	case c.ThrottleWindow < 0:
		return &ConfigError{Timeout: c.Timeout, WarningLead: c.WarningLead, Reason: "throttle window must not be negative"}
	}
	return nil
}

// =============================================================================
// MONITOR
// =============================================================================

// Snapshot is a point-in-time copy of the observable monitor state.
type Snapshot struct {
	Phase        Phase
	Remaining    time.Duration
	LastActivity time.Time
	Enabled      bool
	Timeout      time.Duration
	WarningLead  time.Duration
}

// Monitor tracks user inactivity and signals warning and expiry.
//
// Every armed timer remembers the generation it belongs to. Any reset bumps the
// generation under mu before new timers are armed, so a stale callback that
// races its own Stop finds a mismatched generation and does nothing.
type Monitor struct {
	mu sync.Mutex

	// dispatchMu serialises user callbacks so OnWarning always precedes OnExpire
	// and no OnTick is delivered after OnExpire.
	dispatchMu sync.Mutex

	clock    clock.Clock
	throttle *Throttle
	logger   zerolog.Logger

	cfg          Config
	phase        Phase
	lastActivity time.Time
	remaining    time.Duration
	generation   uint64
	warned       bool
	stopped      bool

	warningTimer clock.Timer
	expireTimer  clock.Timer
	tickTimer    clock.Timer
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock injects the time source.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) {
		m.clock = c
	}
}

// WithLogger sets the logger used for phase transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// New creates a monitor and applies cfg. An invalid cfg is returned as an error.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		clock:  clock.RealClock{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.throttle = NewThrottle(cfg.ThrottleWindow, m.clock)

	if err := m.Configure(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Configure replaces the configuration. On success the monitor is fully reset:
// pending timers are canceled and, if enabled, a fresh cycle starts now.
// On error the previous configuration stays in effect.
func (m *Monitor) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	m.stopped = false
	m.throttle.Reset(cfg.ThrottleWindow)
	m.cancelLocked()
	m.phase = PhaseActive
	m.remaining = cfg.Timeout
	if cfg.Enabled {
		m.armLocked()
		m.throttle.Mark()
	}

	m.logger.Debug().
		Str("event", "idle.configured").
		Dur("timeout", cfg.Timeout).
		Dur("warning_lead", cfg.WarningLead).
		Bool("enabled", cfg.Enabled).
		Msg("idle monitor configured")
	return nil
}

// RecordActivity signals user activity and reports whether it reset the cycle.
// While active, signals inside the throttle window of the last reset are coalesced,
// unless the window reaches the next threshold. In the warning or expired phase
// every signal resets.
func (m *Monitor) RecordActivity() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled || m.stopped {
		return false
	}
	if m.phase == PhaseActive && m.throttleAppliesLocked() && !m.throttle.Allow() {
		return false
	}
	m.resetLocked("activity")
	return true
}

// ContinueSession resets the cycle unconditionally. Called when the user
// acknowledges a warning.
func (m *Monitor) ContinueSession() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled || m.stopped {
		return
	}
	m.resetLocked("continue")
}

// SetEnabled turns monitoring on or off. Enabling starts a fresh cycle;
// disabling cancels every pending timer.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || m.cfg.Enabled == enabled {
		return
	}
	m.cfg.Enabled = enabled
	if enabled {
		m.resetLocked("enabled")
		return
	}
	m.cancelLocked()
	m.phase = PhaseActive
	m.remaining = m.cfg.Timeout
	m.logger.Debug().Str("event", "idle.disabled").Msg("idle monitor disabled")
}

// Stop tears the monitor down. No callback fires after Stop returns, except
// one already being delivered. A later Configure revives the monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelLocked()
	m.stopped = true
	m.cfg.Enabled = false
}

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Remaining returns the time left until expiry as last computed.
func (m *Monitor) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Enabled reports whether the monitor is active.
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Enabled && !m.stopped
}

// Snapshot returns the observable state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Phase:        m.phase,
		Remaining:    m.remaining,
		LastActivity: m.lastActivity,
		Enabled:      m.cfg.Enabled && !m.stopped,
		Timeout:      m.cfg.Timeout,
		WarningLead:  m.cfg.WarningLead,
	}
}

// =============================================================================
// TIMERS
// =============================================================================

// resetLocked starts a new cycle from now.
func (m *Monitor) resetLocked(cause string) {
	prev := m.phase
	m.cancelLocked()
	m.phase = PhaseActive
	m.remaining = m.cfg.Timeout
	m.armLocked()
	m.throttle.Mark()

	if prev != PhaseActive {
		m.logger.Info().
			Str("event", "idle.reset").
			Str("cause", cause).
			Str("from", prev.String()).
			Msg("idle cycle restarted")
	}
}

// throttleAppliesLocked reports whether a signal may be coalesced: the throttle
// window has to close before the next warning or expiry, or the dropped signal
// could be the last one the cycle sees.
func (m *Monitor) throttleAppliesLocked() bool {
	next := m.cfg.Timeout
	if m.cfg.WarningLead > 0 {
		next -= m.cfg.WarningLead
	}
	threshold := m.lastActivity.Add(next)
	return m.clock.Now().Add(m.throttle.Window()).Before(threshold)
}

// cancelLocked stops all timers and invalidates any callback already in flight.
func (m *Monitor) cancelLocked() {
	m.generation++
	for _, t := range []*clock.Timer{&m.warningTimer, &m.expireTimer, &m.tickTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

// armLocked schedules the warning and expiry timers for the current generation.
func (m *Monitor) armLocked() {
	gen := m.generation
	m.lastActivity = m.clock.Now()
	m.warned = false

	if m.cfg.WarningLead > 0 {
		m.warningTimer = m.clock.AfterFunc(m.cfg.Timeout-m.cfg.WarningLead, func() {
			m.onWarningTimer(gen)
		})
	}
	m.expireTimer = m.clock.AfterFunc(m.cfg.Timeout, func() {
		m.onExpireTimer(gen)
	})
}

func (m *Monitor) onWarningTimer(gen uint64) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if gen != m.generation || m.phase != PhaseActive || m.warned {
		m.mu.Unlock()
		return
	}
	cb := m.enterWarningLocked(gen)
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (m *Monitor) onExpireTimer(gen uint64) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if gen != m.generation || m.phase == PhaseExpired {
		m.mu.Unlock()
		return
	}

	// Both thresholds came due together and the warning has not been delivered yet.
	var warnCb func()
	if m.cfg.WarningLead > 0 && !m.warned {
		warnCb = m.enterWarningLocked(gen)
	}

	m.phase = PhaseExpired
	m.remaining = 0
	if m.tickTimer != nil {
		m.tickTimer.Stop()
		m.tickTimer = nil
	}
	m.warningTimer = nil
	m.expireTimer = nil
	expireCb := m.cfg.OnExpire
	idleFor := m.clock.Now().Sub(m.lastActivity)
	m.mu.Unlock()

	m.logger.Info().
		Str("event", "idle.expired").
		Dur("idle_for", idleFor).
		Msg("session idle timeout reached")

	if warnCb != nil {
		warnCb()
	}
	if expireCb != nil {
		expireCb()
	}
}

// enterWarningLocked moves to the warning phase, starts the countdown tick and
// returns the callback to deliver once mu is released.
func (m *Monitor) enterWarningLocked(gen uint64) func() {
	m.phase = PhaseWarning
	m.warned = true
	m.warningTimer = nil
	m.remaining = m.remainingLocked()
	m.tickTimer = m.clock.AfterFunc(TickInterval, func() {
		m.onTick(gen)
	})

	m.logger.Info().
		Str("event", "idle.warning").
		Dur("remaining", m.remaining).
		Msg("session idle warning")

	return m.cfg.OnWarning
}

func (m *Monitor) onTick(gen uint64) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if gen != m.generation || m.phase != PhaseWarning {
		m.mu.Unlock()
		return
	}
	m.remaining = m.remainingLocked()
	m.tickTimer = m.clock.AfterFunc(TickInterval, func() {
		m.onTick(gen)
	})
	cb := m.cfg.OnTick
	remaining := m.remaining
	m.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
}

// remainingLocked computes max(0, Timeout - idle), capped at Timeout.
func (m *Monitor) remainingLocked() time.Duration {
	remaining := m.cfg.Timeout - m.clock.Now().Sub(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	if remaining > m.cfg.Timeout {
		return m.cfg.Timeout
	}
	return remaining
}
