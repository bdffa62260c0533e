// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alphastream/alphastream-tui/internal/session"
)

// SessionEventMsg carries a controller event into the Bubble Tea loop.
type SessionEventMsg session.Event

// DefaultEventBuffer is the sink capacity used by the dashboard.
const DefaultEventBuffer = 64

// EventSink hands controller events to the UI without blocking the
// controller on the Bubble Tea loop. Countdown ticks are dropped when the
// buffer is full; every other event is delivered, from a separate goroutine
// if need be, since the caller may be the loop that drains the buffer.
type EventSink struct {
	ch chan session.Event
}

// NewEventSink creates a sink with the given capacity.
func NewEventSink(size int) *EventSink {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &EventSink{ch: make(chan session.Event, size)}
}

// Send queues ev. Use it as session.Options.OnEvent.
func (s *EventSink) Send(ev session.Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}
	if ev.Kind == session.EventTick {
		return
	}
	go func() {
		s.ch <- ev
	}()
}

// Wait returns a command that blocks for the next event.
func (s *EventSink) Wait() tea.Cmd {
	return func() tea.Msg {
		return SessionEventMsg(<-s.ch)
	}
}
