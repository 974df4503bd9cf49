// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/storefront-tui/internal/session"
)

// DefaultDispatchBuffer is the number of session events queued for the
// program before new ones are dropped.
const DefaultDispatchBuffer = 64

// Sender is the part of *tea.Program the dispatcher needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Dispatcher forwards session events from timer goroutines to the Bubble
// Tea program in order. Enqueueing never blocks, so hooks that fire from
// inside Update cannot deadlock the event loop.
type Dispatcher struct {
	queue chan tea.Msg
	done  chan struct{}
	log   *log.Logger

	mu     sync.Mutex
	target Sender
	ready  chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with room for buf pending events.
func NewDispatcher(buf int, logger *log.Logger) *Dispatcher {
	if buf <= 0 {
		buf = DefaultDispatchBuffer
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		queue: make(chan tea.Msg, buf),
		done:  make(chan struct{}),
		ready: make(chan struct{}),
		log:   logger,
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// Attach sets the program events are delivered to. Events queued before
// Attach are held until then.
func (d *Dispatcher) Attach(s Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.target != nil || d.closed {
		return
	}
	d.target = s
	close(d.ready)
}

// Send queues msg. A full queue drops the event.
func (d *Dispatcher) Send(msg tea.Msg) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("UI_EVENT_DROPPED", "msg", msg)
	}
}

// Hooks returns session hooks that post the matching app messages.
func (d *Dispatcher) Hooks() session.Hooks {
	return session.Hooks{
		OnWarning: func(secs int) { d.Send(WarningMsg{SecondsRemaining: secs}) },
		OnTick:    func(secs int) { d.Send(CountdownMsg{SecondsRemaining: secs}) },
		OnExpired: func() { d.Send(ExpiredMsg{}) },
		OnLogout:  func(r session.Reason, err error) { d.Send(LoggedOutMsg{Reason: r, Err: err}) },
	}
}

// Close stops delivery and waits for the forwarding goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	select {
	case <-d.ready:
	case <-d.done:
		return
	}

	d.mu.Lock()
	target := d.target
	d.mu.Unlock()

	for {
		select {
		case msg := <-d.queue:
			target.Send(msg)
		case <-d.done:
			return
		}
	}
}
