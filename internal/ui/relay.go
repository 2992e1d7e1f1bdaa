// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/steward-tui/internal/auth"
)

// =============================================================================
// EVENT RELAY
// =============================================================================

// sender is the one method of tea.Program the relay uses.
type sender interface {
	Send(tea.Msg)
}

// Relay forwards auth lifecycle events into the bubbletea program.
// Events arriving before Attach are buffered and flushed once the
// program exists, which covers a Restore performed before Run. Delivery
// runs on a dedicated goroutine: Program.Send blocks until the program
// is running, and no caller of Notify may ever wait on that.
type Relay struct {
	mu      sync.Mutex
	target  sender
	pending []tea.Msg

	wake chan struct{}
	once sync.Once
}

// NewRelay creates an unattached relay.
func NewRelay() *Relay {
	return &Relay{wake: make(chan struct{}, 1)}
}

// Notify queues an auth event. Never blocks; safe from any goroutine.
func (r *Relay) Notify(ev auth.Event) {
	r.send(AuthEventMsg{Event: ev})
}

// NotifyConnectivity queues a connectivity transition.
func (r *Relay) NotifyConnectivity(online bool) {
	r.send(ConnectivityMsg{Online: online})
}

// Attach binds the program and starts delivery. Buffered messages go
// out first, in arrival order.
func (r *Relay) Attach(p *tea.Program) {
	r.attach(p)
}

func (r *Relay) attach(s sender) {
	r.mu.Lock()
	r.target = s
	r.mu.Unlock()

	r.once.Do(func() { go r.dispatch() })
	r.signal()
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.Lock()
	r.pending = append(r.pending, msg)
	r.mu.Unlock()
	r.signal()
}

func (r *Relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// dispatch drains the queue each time it is woken. A single goroutine
// pops in FIFO order, so events reach the program in the order they
// were raised.
func (r *Relay) dispatch() {
	for range r.wake {
		for {
			r.mu.Lock()
			if r.target == nil || len(r.pending) == 0 {
				r.mu.Unlock()
				break
			}
			msg := r.pending[0]
			r.pending = r.pending[1:]
			target := r.target
			r.mu.Unlock()

			target.Send(msg)
		}
	}
}
