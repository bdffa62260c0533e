// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package activity

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestFromMsg(t *testing.T) {
	now := time.Unix(100, 0)
	tests := []struct {
		name   string
		msg    tea.Msg
		want   Kind
		wantOK bool
	}{
		{"key", tea.KeyMsg{Type: tea.KeyEnter}, KindKey, true},
		{"wheel", tea.MouseMsg{Type: tea.MouseWheelDown}, KindScroll, true},
		{"motion", tea.MouseMsg{Type: tea.MouseMotion}, KindPointer, true},
		{"click", tea.MouseMsg{Type: tea.MouseLeft}, KindClick, true},
		{"window size", tea.WindowSizeMsg{Width: 80, Height: 24}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := FromMsg(tt.msg, now)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, ev.Kind)
				assert.Equal(t, now, ev.At)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "pointer", KindPointer.String())
	assert.Equal(t, "key", KindKey.String())
	assert.Equal(t, "scroll", KindScroll.String())
	assert.Equal(t, "touch", KindTouch.String())
	assert.Equal(t, "click", KindClick.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestBus_SubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	unsubA := bus.Subscribe(func(Event) { a++ })
	bus.Subscribe(func(Event) { b++ })

	bus.Publish(Event{Kind: KindKey})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	unsubA()
	unsubA()
	assert.Equal(t, 1, bus.Subscribers())

	bus.Publish(Event{Kind: KindKey})
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestBus_HandlerMayUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	var unsub func()
	unsub = bus.Subscribe(func(Event) {
		calls++
		unsub()
	})

	bus.Publish(Event{})
	bus.Publish(Event{})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Subscribers())
}
