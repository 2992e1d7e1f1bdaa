// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/api"
)

func TestHeartbeatPostsWhileRunning(t *testing.T) {
	var beats atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/heartbeat" && r.Method == http.MethodPost {
			beats.Add(1)
		}
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, api.StaticCredential("tok"))
	hb := NewHeartbeat(client, 20*time.Millisecond, zerolog.Nop())

	hb.Start()
	hb.Start() // idempotent

	deadline := time.After(2 * time.Second)
	for beats.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("heartbeats never arrived")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hb.Stop()
	hb.Stop()
	settled := beats.Load()
	time.Sleep(100 * time.Millisecond)
	if got := beats.Load(); got > settled+1 {
		t.Errorf("heartbeats kept flowing after Stop: %d -> %d", settled, got)
	}
}
