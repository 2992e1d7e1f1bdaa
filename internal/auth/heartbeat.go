// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/api"
)

// =============================================================================
// HEARTBEAT
// =============================================================================

// Heartbeat pings the server periodically while a session is active so
// the server-side presence tracking stays warm. Failures are logged
// and otherwise ignored; the session timer alone decides expiry.
type Heartbeat struct {
	client   *api.Client
	interval time.Duration
	logger   zerolog.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewHeartbeat creates a heartbeat sender. It is inert until Start.
func NewHeartbeat(client *api.Client, interval time.Duration, logger zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		client:   client,
		interval: interval,
		logger:   logger.With().Str("component", "heartbeat").Logger(),
	}
}

// Start begins sending heartbeats. Calling Start on a running
// heartbeat is a no-op.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return
	}
	h.stop = make(chan struct{})
	go h.run(h.stop)
}

// Stop halts heartbeats. Safe to call when not running.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop == nil {
		return
	}
	close(h.stop)
	h.stop = nil
}

func (h *Heartbeat) run(stop chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), h.interval/2)
			if err := h.client.Heartbeat(ctx); err != nil {
				h.logger.Debug().Err(err).Msg("Heartbeat failed")
			}
			cancel()
		}
	}
}
