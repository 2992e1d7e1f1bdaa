// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/steward-tui/internal/auth"
	"github.com/jeranaias/steward-tui/internal/model"
)

// chanSender collects delivered messages on a channel.
type chanSender struct {
	msgs chan tea.Msg
}

func (s *chanSender) Send(msg tea.Msg) {
	s.msgs <- msg
}

// stalledSender blocks every Send until released, the way a program
// that has not started Run yet would.
type stalledSender struct {
	release chan struct{}
	msgs    chan tea.Msg
}

func (s *stalledSender) Send(msg tea.Msg) {
	<-s.release
	s.msgs <- msg
}

func TestRelayBuffersUntilAttachInOrder(t *testing.T) {
	relay := NewRelay()

	relay.Notify(auth.LoggedInEvent{
		Identity: model.Identity{ID: 7, Name: "Grace Okafor"},
		Restored: true,
	})
	relay.NotifyConnectivity(false)

	sink := &chanSender{msgs: make(chan tea.Msg, 4)}
	relay.attach(sink)

	first := receiveMsg(t, sink.msgs)
	if _, ok := first.(AuthEventMsg); !ok {
		t.Fatalf("first delivered message = %T, want AuthEventMsg", first)
	}
	second := receiveMsg(t, sink.msgs)
	conn, ok := second.(ConnectivityMsg)
	if !ok || conn.Online {
		t.Fatalf("second delivered message = %#v, want offline ConnectivityMsg", second)
	}
}

func TestRelayNotifyNeverBlocksCaller(t *testing.T) {
	relay := NewRelay()
	stalled := &stalledSender{
		release: make(chan struct{}),
		msgs:    make(chan tea.Msg, 4),
	}
	relay.attach(stalled)

	done := make(chan struct{})
	go func() {
		relay.Notify(auth.WarningEvent{SecondsRemaining: 30})
		relay.Notify(auth.WarningEvent{SecondsRemaining: 29})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked while the program was not yet consuming")
	}

	close(stalled.release)
	for _, want := range []int{30, 29} {
		msg := receiveMsg(t, stalled.msgs)
		ev, ok := msg.(AuthEventMsg)
		if !ok {
			t.Fatalf("delivered message = %T, want AuthEventMsg", msg)
		}
		warning, ok := ev.Event.(auth.WarningEvent)
		if !ok || warning.SecondsRemaining != want {
			t.Fatalf("delivered event = %#v, want warning with %d seconds", ev.Event, want)
		}
	}
}

func receiveMsg(t *testing.T, ch chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a delivered message")
		return nil
	}
}
