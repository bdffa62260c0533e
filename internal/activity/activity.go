// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activity turns raw terminal input into activity signals and fans
// them out to subscribers.
package activity

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind classifies an activity signal.
type Kind int

const (
	KindPointer Kind = iota
	KindKey
	KindScroll
	KindTouch
	KindClick
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindKey:
		return "key"
	case KindScroll:
		return "scroll"
	case KindTouch:
		return "touch"
	case KindClick:
		return "click"
	default:
		return "unknown"
	}
}

// Event is one observed activity signal.
type Event struct {
	Kind Kind
	At   time.Time
}

// FromMsg maps a Bubble Tea message to an activity event.
// Returns false for messages that are not user input.
func FromMsg(msg tea.Msg, now time.Time) (Event, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return Event{Kind: KindKey, At: now}, true

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp, tea.MouseWheelDown:
			return Event{Kind: KindScroll, At: now}, true
		case tea.MouseMotion:
			return Event{Kind: KindPointer, At: now}, true
		case tea.MouseLeft, tea.MouseRight, tea.MouseMiddle, tea.MouseRelease:
			return Event{Kind: KindClick, At: now}, true
		default:
			return Event{Kind: KindPointer, At: now}, true
		}
	}
	return Event{}, false
}

// =============================================================================
// BUS
// =============================================================================

// Handler receives activity events.
type Handler func(Event)

// Bus delivers published events to every current subscriber, synchronously
// and in subscription order.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
// The returned function is idempotent.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to all subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
