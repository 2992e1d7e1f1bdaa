// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// CONNECTIVITY MONITOR
// =============================================================================

const (
	connectivityInterval = 10 * time.Second
	connectivityTimeout  = 3 * time.Second
)

// ConnectivityMonitor probes the API host periodically and reports
// transitions between online and offline. Any response from the host,
// error status included, counts as online; only transport failures
// count as offline.
type ConnectivityMonitor struct {
	host     string
	client   *http.Client
	interval time.Duration
	onChange func(online bool)
	logger   zerolog.Logger

	mu     sync.Mutex
	online bool
	stop   chan struct{}
}

// NewConnectivityMonitor creates a monitor for the API at baseURL.
// onChange fires on every transition, from the monitor goroutine.
func NewConnectivityMonitor(baseURL string, onChange func(online bool), logger zerolog.Logger) (*ConnectivityMonitor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &ConnectivityMonitor{
		host:     u.Scheme + "://" + u.Host,
		client:   &http.Client{Timeout: connectivityTimeout},
		interval: connectivityInterval,
		onChange: onChange,
		logger:   logger.With().Str("component", "connectivity").Logger(),
		online:   true,
	}, nil
}

// Start begins probing. Idempotent.
func (m *ConnectivityMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	go m.run(m.stop)
}

// Stop halts probing. Safe to call when not running.
func (m *ConnectivityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop == nil {
		return
	}
	close(m.stop)
	m.stop = nil
}

// Online returns the last probed state.
func (m *ConnectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ConnectivityMonitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.probe()
		}
	}
}

func (m *ConnectivityMonitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), connectivityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.host, nil)
	if err != nil {
		return
	}
	// Do fails only on transport trouble; any HTTP status means the
	// host is reachable.
	resp, err := m.client.Do(req)
	online := err == nil
	if resp != nil {
		resp.Body.Close()
	}

	m.mu.Lock()
	changed := online != m.online
	m.online = online
	m.mu.Unlock()

	if changed {
		m.logger.Info().Bool("online", online).Msg("Connectivity changed")
		if m.onChange != nil {
			m.onChange(online)
		}
	}
}
