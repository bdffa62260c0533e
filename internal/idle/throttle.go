// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alphastream/alphastream-tui/internal/clock"
)

// Throttle admits at most one event per window. It owns its limiter outright;
// nothing outside the Throttle can consume or refill it.
//
// A zero window disables throttling.
type Throttle struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	limiter *rate.Limiter
}

// NewThrottle creates a throttle that admits one event per window.
func NewThrottle(window time.Duration, clk clock.Clock) *Throttle {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Throttle{
		clock:   clk,
		window:  window,
		limiter: newLimiter(window),
	}
}

func newLimiter(window time.Duration) *rate.Limiter {
	if window <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(window), 1)
}

// Allow reports whether an event arriving now should pass.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.AllowN(t.clock.Now(), 1)
}

// Mark records an admission that bypassed Allow, so the next window starts now.
func (t *Throttle) Mark() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiter = newLimiter(t.window)
	t.limiter.AllowN(t.clock.Now(), 1)
}

// Reset discards throttle history and applies a new window.
func (t *Throttle) Reset(window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = window
	t.limiter = newLimiter(window)
}

// Window returns the configured window.
func (t *Throttle) Window() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window
}
