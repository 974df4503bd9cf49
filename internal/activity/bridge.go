// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activity turns the Bubble Tea message stream into the activity
// signals the idle monitor subscribes to.
package activity

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/storefront-tui/internal/idle"
)

// ErrUnsupportedKind is returned when subscribing to a kind a terminal cannot
// produce (touch input).
var ErrUnsupportedKind = errors.New("activity kind not observable in a terminal")

// Bridge is an idle.ActivitySource fed by Observe.
type Bridge struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[idle.Kind]map[uint64]func(idle.Kind)
	mouse     bool
}

// NewBridge creates a bridge. With mouse disabled, pointer kinds cannot be
// subscribed to since the program never receives mouse messages.
func NewBridge(mouse bool) *Bridge {
	return &Bridge{
		listeners: make(map[idle.Kind]map[uint64]func(idle.Kind)),
		mouse:     mouse,
	}
}

// Subscribe registers fn for kind.
func (b *Bridge) Subscribe(kind idle.Kind, fn func(idle.Kind)) (idle.Subscription, error) {
	switch kind {
	case idle.KeyDown:
	case idle.PointerMove, idle.MouseDown:
		if !b.mouse {
			return nil, fmt.Errorf("%w: %s (mouse reporting disabled)", ErrUnsupportedKind, kind)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[uint64]func(idle.Kind))
	}
	b.listeners[kind][id] = fn
	return &subscription{bridge: b, kind: kind, id: id}, nil
}

// Observe inspects a Bubble Tea message and notifies listeners when it is
// user activity. It reports the kind detected, if any.
func (b *Bridge) Observe(msg tea.Msg) (idle.Kind, bool) {
	kind, ok := Classify(msg)
	if !ok {
		return 0, false
	}

	b.mu.Lock()
	fns := make([]func(idle.Kind), 0, len(b.listeners[kind]))
	for _, fn := range b.listeners[kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
	return kind, true
}

// Listeners returns the number of registered listeners.
func (b *Bridge) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, fns := range b.listeners {
		n += len(fns)
	}
	return n
}

// Classify maps a Bubble Tea message to an activity kind.
func Classify(msg tea.Msg) (idle.Kind, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return idle.KeyDown, true
	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionMotion:
			return idle.PointerMove, true
		case tea.MouseActionPress:
			return idle.MouseDown, true
		}
	}
	return 0, false
}

type subscription struct {
	bridge *Bridge
	kind   idle.Kind
	id     uint64
}

func (s *subscription) Unsubscribe() {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	delete(s.bridge.listeners[s.kind], s.id)
}
