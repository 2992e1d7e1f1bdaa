// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTrackerCountsInputMessages(t *testing.T) {
	var events int
	tracker := NewTracker(func() { events++ })

	tracker.Observe(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if events != 1 {
		t.Fatalf("events = %d, want 1 after a key press", events)
	}
}

func TestTrackerThrottlesBursts(t *testing.T) {
	var events int
	tracker := NewTracker(func() { events++ })

	for i := 0; i < 50; i++ {
		tracker.Observe(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	}
	if events != 1 {
		t.Fatalf("events = %d, want 1 for a burst inside the throttle window", events)
	}
}

func TestTrackerIgnoresNonInputMessages(t *testing.T) {
	var events int
	tracker := NewTracker(func() { events++ })

	tracker.Observe(tea.WindowSizeMsg{Width: 80, Height: 24})
	tracker.Observe(spinnerTickMsg{})
	if events != 0 {
		t.Fatalf("events = %d, want 0 for non-input messages", events)
	}
}

// spinnerTickMsg stands in for component-internal messages that flow
// through Update but carry no user intent.
type spinnerTickMsg struct{}

func TestTrackerObservesMouse(t *testing.T) {
	var events int
	tracker := NewTracker(func() { events++ })

	tracker.Observe(tea.MouseMsg{})
	if events != 1 {
		t.Fatalf("events = %d, want 1 after a mouse event", events)
	}
}

func TestTrackerClosedIsInert(t *testing.T) {
	var events int
	tracker := NewTracker(func() { events++ })
	tracker.Close()

	tracker.Observe(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if events != 0 {
		t.Fatalf("events = %d, want 0 after Close", events)
	}
}
