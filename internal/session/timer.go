// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the inactivity clock behind forced logout.
//
// The timer tracks elapsed idle time since the last reset on a fixed
// polling cadence. Inside the warning window it reports the remaining
// seconds on every tick so a countdown can update live; at zero it fires
// the timeout callback exactly once per expiry episode.
package session

import (
	"sync"
	"time"
)

// DefaultPollInterval is the timer's polling cadence. One second keeps a
// 60-second warning window perceptible without waking the process more
// than needed.
const DefaultPollInterval = time.Second

// Timer is the idle-time state machine. It is safe for concurrent use;
// callbacks are invoked from the polling goroutine without holding the
// timer's lock.
type Timer struct {
	timeout      time.Duration
	warningLead  time.Duration
	pollInterval time.Duration
	now          func() time.Time

	// gate reports whether a credential currently exists. Without one
	// there is no timeout to enforce, so ticks are inert.
	gate func() bool

	onWarning func(secondsLeft int)
	onTimeout func()

	mu        sync.Mutex
	lastReset time.Time
	fired     bool
	running   bool
	stop      chan struct{}
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithPollInterval overrides the polling cadence. Tests use this to run
// the clock fast.
func WithPollInterval(d time.Duration) TimerOption {
	return func(t *Timer) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TimerOption {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithCredentialGate installs the credential check. When the gate reports
// false, ticks produce no callbacks.
func WithCredentialGate(gate func() bool) TimerOption {
	return func(t *Timer) { t.gate = gate }
}

// NewTimer creates a stopped timer with the given inactivity timeout and
// warning lead. Callbacks are registered with SetCallbacks before Start.
func NewTimer(timeout, warningLead time.Duration, opts ...TimerOption) *Timer {
	t := &Timer{
		timeout:      timeout,
		warningLead:  warningLead,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetCallbacks registers the warning and timeout callbacks.
func (t *Timer) SetCallbacks(onWarning func(secondsLeft int), onTimeout func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onWarning = onWarning
	t.onTimeout = onTimeout
}

// Start begins polling. Idempotent; a running timer is left alone.
// The idle clock is reset so a fresh session never inherits staleness.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.running = true
	t.fired = false
	t.lastReset = t.now()
	t.stop = make(chan struct{})

	go t.poll(t.stop)
}

// Stop halts polling and releases the goroutine. Idempotent.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
}

// Reset moves the idle clock to now and clears a fired expiry, so a
// reset after timeout resumes normal polling. Idempotent.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastReset = t.now()
	t.fired = false
}

// Timeout returns the configured inactivity window.
func (t *Timer) Timeout() time.Duration {
	return t.timeout
}

// Remaining returns the time left before expiry. Zero or negative means
// the window has elapsed.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout - t.now().Sub(t.lastReset)
}

// poll is the timer goroutine. It exits when the stop channel tied to
// this run closes, so a Stop/Start cycle never leaves two pollers.
func (t *Timer) poll(stop chan struct{}) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick evaluates the idle clock once. Callback references are captured
// under the lock and invoked outside it.
func (t *Timer) tick() {
	t.mu.Lock()

	if t.gate != nil && !t.gate() {
		t.mu.Unlock()
		return
	}
	if t.fired {
		// Expired episode already reported; stay quiet until Reset.
		t.mu.Unlock()
		return
	}

	elapsed := t.now().Sub(t.lastReset)

	switch {
	case elapsed >= t.timeout:
		t.fired = true
		cb := t.onTimeout
		t.mu.Unlock()
		if cb != nil {
			cb()
		}

	case elapsed >= t.timeout-t.warningLead:
		remaining := t.timeout - elapsed
		secs := int((remaining + time.Second - 1) / time.Second)
		cb := t.onWarning
		t.mu.Unlock()
		if cb != nil {
			cb(secs)
		}

	default:
		t.mu.Unlock()
	}
}
