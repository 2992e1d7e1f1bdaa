// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the inactivity clock behind forced logout.
//
// The activity tracker is the timer's input: it watches the bubbletea
// message stream for evidence of a person at the keyboard and reports it
// upstream. It holds no session state of its own.
package session

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

// activityRate caps how often a burst of input events is reported. Mouse
// motion arrives far faster than the timer's one-second cadence; passing
// a few resets per second is indistinguishable from passing all of them.
var activityRate = rate.Every(250 * time.Millisecond)

// Tracker observes user-interaction messages and invokes a callback on
// each qualifying one. Best effort by contract: it never errors.
type Tracker struct {
	onActivity func()
	limiter    *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// NewTracker creates a tracker reporting to onActivity.
func NewTracker(onActivity func()) *Tracker {
	return &Tracker{
		onActivity: onActivity,
		limiter:    rate.NewLimiter(activityRate, 1),
	}
}

// Observe inspects one bubbletea message. Key presses and mouse input
// (including wheel scrolling) count as activity; resize and other
// program machinery does not, so an untouched terminal never extends
// its own session.
func (t *Tracker) Observe(msg tea.Msg) {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
	default:
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	allowed := t.limiter.Allow()
	t.mu.Unlock()

	if allowed {
		t.onActivity()
	}
}

// Close detaches the tracker. Observing after Close is a no-op, so a
// disposed controller never hears from a stale message stream.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}
