// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alphastream/alphastream-tui/internal/clock"
)

// recorder counts callback deliveries.
type recorder struct {
	warnings atomic.Int32
	expires  atomic.Int32

	mu    sync.Mutex
	order []string
	ticks []time.Duration
}

func (r *recorder) config(timeout, lead time.Duration) Config {
	return Config{
		Timeout:        timeout,
		WarningLead:    lead,
		ThrottleWindow: time.Second,
		Enabled:        true,
		OnWarning: func() {
			r.warnings.Add(1)
			r.mu.Lock()
			r.order = append(r.order, "warning")
			r.mu.Unlock()
		},
		OnExpire: func() {
			r.expires.Add(1)
			r.mu.Lock()
			r.order = append(r.order, "expire")
			r.mu.Unlock()
		},
		OnTick: func(remaining time.Duration) {
			r.mu.Lock()
			r.ticks = append(r.ticks, remaining)
			r.mu.Unlock()
		},
	}
}

func newTestMonitor(t *testing.T, timeout, lead time.Duration) (*Monitor, *clock.MockClock, *recorder) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC))
	rec := &recorder{}
	m, err := New(rec.config(timeout, lead), WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m, clk, rec
}

// =============================================================================
// CONFIGURATION TESTS
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		lead    time.Duration
		wantErr bool
	}{
		{"defaults", 15 * time.Minute, time.Minute, false},
		{"lead equals timeout", time.Minute, time.Minute, false},
		{"zero lead", time.Minute, 0, false},
		{"lead exceeds timeout", time.Minute, 2 * time.Minute, true},
		{"zero timeout", 0, 0, true},
		{"negative timeout", -time.Second, 0, true},
		{"negative lead", time.Minute, -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Timeout: tt.timeout, WarningLead: tt.lead}.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTimeoutConfiguration))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	m, err := New(Config{Timeout: time.Minute, WarningLead: 2 * time.Minute, Enabled: true})
	require.ErrorIs(t, err, ErrInvalidTimeoutConfiguration)
	assert.Nil(t, m)
}

func TestConfigure_InvalidKeepsPreviousConfig(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Minute, 10*time.Second)

	err := m.Configure(Config{Timeout: time.Second, WarningLead: time.Minute, Enabled: true})
	require.ErrorIs(t, err, ErrInvalidTimeoutConfiguration)

	snap := m.Snapshot()
	assert.Equal(t, time.Minute, snap.Timeout)
	assert.Equal(t, 10*time.Second, snap.WarningLead)
	assert.True(t, snap.Enabled)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "ACTIVE", PhaseActive.String())
	assert.Equal(t, "WARNING", PhaseWarning.String())
	assert.Equal(t, "EXPIRED", PhaseExpired.String())
	assert.Equal(t, "UNKNOWN", Phase(42).String())
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestMonitor_WarningThenExpire(t *testing.T) {
	m, clk, rec := newTestMonitor(t, 900*time.Second, 60*time.Second)

	assert.Equal(t, PhaseActive, m.Phase())
	assert.Equal(t, 900*time.Second, m.Remaining())

	clk.Advance(840 * time.Second)
	assert.Equal(t, PhaseWarning, m.Phase())
	assert.EqualValues(t, 1, rec.warnings.Load())
	assert.EqualValues(t, 0, rec.expires.Load())
	assert.Equal(t, 60*time.Second, m.Remaining())

	clk.Advance(60 * time.Second)
	assert.Equal(t, PhaseExpired, m.Phase())
	assert.EqualValues(t, 1, rec.warnings.Load(), "warning must not re-fire")
	assert.EqualValues(t, 1, rec.expires.Load())
	assert.Equal(t, time.Duration(0), m.Remaining())
	assert.Equal(t, []string{"warning", "expire"}, rec.order)
}

func TestMonitor_CountdownTicks(t *testing.T) {
	m, clk, rec := newTestMonitor(t, 10*time.Second, 3*time.Second)

	clk.Advance(7 * time.Second)
	require.Equal(t, PhaseWarning, m.Phase())

	clk.Advance(time.Second)
	assert.Equal(t, 2*time.Second, m.Remaining())
	clk.Advance(time.Second)
	assert.Equal(t, time.Second, m.Remaining())
	clk.Advance(time.Second)
	assert.Equal(t, PhaseExpired, m.Phase())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, rec.ticks)
	assert.Equal(t, 0, clk.Pending(), "no timers may survive expiry")
}

func TestMonitor_ZeroWarningLeadSkipsWarning(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 0)

	clk.Advance(59 * time.Second)
	assert.Equal(t, PhaseActive, m.Phase())

	clk.Advance(time.Second)
	assert.Equal(t, PhaseExpired, m.Phase())
	assert.EqualValues(t, 0, rec.warnings.Load())
	assert.EqualValues(t, 1, rec.expires.Load())
}

func TestMonitor_WarningFiresWithoutCallback(t *testing.T) {
	clk := clock.NewMockClock(time.Unix(0, 0))
	expired := false
	m, err := New(Config{
		Timeout:     time.Minute,
		WarningLead: 10 * time.Second,
		Enabled:     true,
		OnExpire:    func() { expired = true },
	}, WithClock(clk))
	require.NoError(t, err)
	defer m.Stop()

	clk.Advance(50 * time.Second)
	assert.Equal(t, PhaseWarning, m.Phase(), "warning phase depends on lead, not on a registered callback")

	clk.Advance(10 * time.Second)
	assert.True(t, expired)
}

func TestMonitor_LeadEqualsTimeout(t *testing.T) {
	m, clk, rec := newTestMonitor(t, 5*time.Second, 5*time.Second)

	clk.Advance(0)
	assert.Equal(t, PhaseWarning, m.Phase())
	assert.EqualValues(t, 1, rec.warnings.Load())

	clk.Advance(5 * time.Second)
	assert.Equal(t, PhaseExpired, m.Phase())
	assert.EqualValues(t, 1, rec.expires.Load())
}

// =============================================================================
// ACTIVITY TESTS
// =============================================================================

func TestMonitor_ActivityDuringWarningPreventsExpiry(t *testing.T) {
	m, clk, rec := newTestMonitor(t, 900*time.Second, 60*time.Second)

	clk.Advance(850 * time.Second)
	require.Equal(t, PhaseWarning, m.Phase())

	assert.True(t, m.RecordActivity())
	assert.Equal(t, PhaseActive, m.Phase())
	assert.Equal(t, 900*time.Second, m.Remaining())

	clk.Advance(839 * time.Second)
	assert.EqualValues(t, 1, rec.warnings.Load())
	assert.EqualValues(t, 0, rec.expires.Load())

	clk.Advance(60 * time.Second)
	assert.EqualValues(t, 2, rec.warnings.Load(), "new cycle warns again")
	assert.EqualValues(t, 0, rec.expires.Load(), "no expiry within 900s of the reset")
}

func TestMonitor_ActivityWithSubMillisecondLeft(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(time.Minute - 500*time.Microsecond)
	require.Equal(t, PhaseWarning, m.Phase())

	assert.True(t, m.RecordActivity())
	clk.Advance(time.Millisecond)

	assert.Equal(t, PhaseActive, m.Phase())
	assert.EqualValues(t, 0, rec.expires.Load())
}

func TestMonitor_ThrottleCoalescesActivity(t *testing.T) {
	m, clk, _ := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(5 * time.Second)
	resets := 0
	for i := 0; i < 10; i++ {
		if m.RecordActivity() {
			resets++
		}
		clk.Advance(50 * time.Millisecond)
	}
	assert.Equal(t, 1, resets)

	clk.Advance(time.Second)
	assert.True(t, m.RecordActivity(), "next window admits a new reset")
}

func TestMonitor_ThrottledSignalStillCountsFirstReset(t *testing.T) {
	m, clk, _ := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(20 * time.Second)
	require.True(t, m.RecordActivity())
	before := m.Snapshot().LastActivity

	clk.Advance(100 * time.Millisecond)
	require.False(t, m.RecordActivity())
	assert.Equal(t, before, m.Snapshot().LastActivity)
}

func TestMonitor_ActivityRightAfterConfigureIsCoalesced(t *testing.T) {
	m, _, _ := newTestMonitor(t, time.Minute, 10*time.Second)
	assert.False(t, m.RecordActivity())
}

func TestMonitor_ContinueSessionBypassesThrottle(t *testing.T) {
	m, clk, _ := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(100 * time.Millisecond)
	m.ContinueSession()
	assert.Equal(t, clk.Now(), m.Snapshot().LastActivity)
}

func TestMonitor_ThrottleNeverSwallowsSignalNearThreshold(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC))
	rec := &recorder{}
	cfg := rec.config(time.Second, 0)
	cfg.ThrottleWindow = time.Second
	m, err := New(cfg, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(m.Stop)

	clk.Advance(999 * time.Millisecond)
	assert.True(t, m.RecordActivity(), "window reaches expiry, signal must reset")

	clk.Advance(2 * time.Millisecond)
	assert.Equal(t, PhaseActive, m.Phase())
	assert.EqualValues(t, 0, rec.expires.Load())
}

func TestMonitor_ThrottleNearWarningThreshold(t *testing.T) {
	m, clk, rec := newTestMonitor(t, 10*time.Second, 9500*time.Millisecond)

	// Inside the throttle window of the configure reset, but the warning is
	// due before the window closes.
	clk.Advance(100 * time.Millisecond)
	require.True(t, m.RecordActivity())
	assert.Equal(t, clk.Now(), m.Snapshot().LastActivity)

	clk.Advance(450 * time.Millisecond)
	assert.Equal(t, PhaseActive, m.Phase())
	assert.EqualValues(t, 0, rec.warnings.Load())
}

func TestMonitor_ActivityAfterExpiryRestarts(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(time.Minute)
	require.Equal(t, PhaseExpired, m.Phase())

	assert.True(t, m.RecordActivity())
	assert.Equal(t, PhaseActive, m.Phase())

	clk.Advance(time.Minute)
	assert.EqualValues(t, 2, rec.expires.Load())
}

// =============================================================================
// ENABLE / DISABLE TESTS
// =============================================================================

func TestMonitor_DisableCutsAllEffects(t *testing.T) {
	for _, at := range []time.Duration{0, 30 * time.Second, 55 * time.Second} {
		t.Run(at.String(), func(t *testing.T) {
			m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)
			clk.Advance(at)
			warningsBefore := rec.warnings.Load()

			m.SetEnabled(false)
			clk.Advance(10 * time.Minute)

			assert.Equal(t, warningsBefore, rec.warnings.Load())
			assert.EqualValues(t, 0, rec.expires.Load())
			assert.Equal(t, 0, clk.Pending())
			assert.False(t, m.RecordActivity())
		})
	}
}

func TestMonitor_ReEnableStartsFreshCycle(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)

	m.SetEnabled(false)
	clk.Advance(5 * time.Minute)
	m.SetEnabled(true)

	assert.Equal(t, clk.Now(), m.Snapshot().LastActivity)
	clk.Advance(time.Minute)
	assert.EqualValues(t, 1, rec.expires.Load())
}

func TestMonitor_StartsDisabled(t *testing.T) {
	clk := clock.NewMockClock(time.Unix(0, 0))
	cfg := DefaultConfig()
	cfg.Enabled = false
	m, err := New(cfg, WithClock(clk))
	require.NoError(t, err)

	assert.False(t, m.Enabled())
	assert.Equal(t, 0, clk.Pending())
}

func TestMonitor_ReconfigureIsFullReset(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)

	clk.Advance(55 * time.Second)
	require.Equal(t, PhaseWarning, m.Phase())

	require.NoError(t, m.Configure(rec.config(2*time.Minute, 30*time.Second)))
	assert.Equal(t, PhaseActive, m.Phase())
	assert.Equal(t, 2*time.Minute, m.Remaining())

	clk.Advance(time.Minute)
	assert.EqualValues(t, 0, rec.expires.Load(), "old expiry timer must be canceled")

	clk.Advance(time.Minute)
	assert.EqualValues(t, 1, rec.expires.Load())
}

func TestMonitor_StopSilencesMonitor(t *testing.T) {
	m, clk, rec := newTestMonitor(t, time.Minute, 10*time.Second)

	m.Stop()
	clk.Advance(time.Hour)

	assert.EqualValues(t, 0, rec.warnings.Load())
	assert.EqualValues(t, 0, rec.expires.Load())
	assert.False(t, m.Enabled())
	m.SetEnabled(true)
	assert.False(t, m.Enabled(), "stopped monitors ignore SetEnabled")
}

func TestMonitor_CallbackMayCallBack(t *testing.T) {
	clk := clock.NewMockClock(time.Unix(0, 0))
	var m *Monitor
	var err error
	m, err = New(Config{
		Timeout:     time.Minute,
		WarningLead: 10 * time.Second,
		Enabled:     true,
		OnExpire:    func() { m.SetEnabled(false) },
	}, WithClock(clk))
	require.NoError(t, err)

	clk.Advance(time.Minute)
	assert.False(t, m.Enabled())
}

func TestMonitor_TickNeverFollowsExpiry(t *testing.T) {
	clk := clock.NewMockClock(time.Unix(0, 0))
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var order []string
	m, err := New(Config{
		Timeout:     10 * time.Second,
		WarningLead: 5 * time.Second,
		Enabled:     true,
		OnTick: func(time.Duration) {
			mu.Lock()
			order = append(order, "tick")
			mu.Unlock()
			entered <- struct{}{}
			<-release
		},
		OnExpire: func() {
			mu.Lock()
			order = append(order, "expire")
			mu.Unlock()
		},
	}, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(m.Stop)

	clk.Advance(5 * time.Second)
	require.Equal(t, PhaseWarning, m.Phase())
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	// A tick is mid-delivery when the expiry timer fires.
	go m.onTick(gen)
	<-entered
	done := make(chan struct{})
	go func() {
		m.onExpireTimer(gen)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expiry delivered while a tick was still being delivered")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tick", "expire"}, order)
}

// =============================================================================
// PROPERTY TESTS
// =============================================================================

func TestMonitor_PropertyWarningThenExpireForValidConfigs(t *testing.T) {
	timeouts := []time.Duration{time.Second, 30 * time.Second, 15 * time.Minute}
	for _, timeout := range timeouts {
		for _, lead := range []time.Duration{0, time.Millisecond, timeout / 2, timeout} {
			m, clk, rec := newTestMonitor(t, timeout, lead)

			clk.Advance(timeout - lead)
			if lead > 0 {
				assert.Equal(t, PhaseWarning, m.Phase(), "timeout=%v lead=%v", timeout, lead)
				assert.EqualValues(t, 1, rec.warnings.Load())
			}

			clk.Advance(lead)
			assert.Equal(t, PhaseExpired, m.Phase(), "timeout=%v lead=%v", timeout, lead)
			assert.EqualValues(t, 1, rec.expires.Load())
			if lead > 0 {
				assert.EqualValues(t, 1, rec.warnings.Load())
			} else {
				assert.EqualValues(t, 0, rec.warnings.Load())
			}
		}
	}
}

func TestMonitor_RemainingStaysInBounds(t *testing.T) {
	m, clk, _ := newTestMonitor(t, 10*time.Second, 5*time.Second)
	for i := 0; i < 15; i++ {
		r := m.Remaining()
		assert.GreaterOrEqual(t, r, time.Duration(0))
		assert.LessOrEqual(t, r, 10*time.Second)
		clk.Advance(time.Second)
	}
}

// =============================================================================
// REAL CLOCK
// =============================================================================

func TestMonitor_RealClockNoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	warned := make(chan struct{}, 1)
	expired := make(chan struct{}, 1)
	m, err := New(Config{
		Timeout:     60 * time.Millisecond,
		WarningLead: 30 * time.Millisecond,
		Enabled:     true,
		OnWarning:   func() { warned <- struct{}{} },
		OnExpire:    func() { expired <- struct{}{} },
	})
	require.NoError(t, err)

	select {
	case <-warned:
	case <-time.After(2 * time.Second):
		t.Fatal("warning did not fire")
	}
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry did not fire")
	}
	m.Stop()
}
