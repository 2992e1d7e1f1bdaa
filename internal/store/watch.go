// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// =============================================================================
// SESSION FILE WATCHER
// =============================================================================

// watchDebounce coalesces the burst of events an atomic rename produces.
const watchDebounce = 200 * time.Millisecond

// SessionWatcher watches the session file so that a logout performed
// by another steward instance on the same machine is noticed here.
// When the file transitions from present to absent the onCleared
// callback fires.
type SessionWatcher struct {
	path      string
	watcher   *fsnotify.Watcher
	onCleared func()
	logger    zerolog.Logger

	mu      sync.Mutex
	present bool
	dirty   bool
	closed  bool
	done    chan struct{}
}

// WatchSessionFile starts watching the session file at path. The
// parent directory is watched rather than the file itself, since the
// file is replaced by rename and may not exist yet.
func WatchSessionFile(path string, onCleared func(), logger zerolog.Logger) (*SessionWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	_, statErr := os.Stat(path)

	sw := &SessionWatcher{
		path:      path,
		watcher:   watcher,
		onCleared: onCleared,
		logger:    logger.With().Str("component", "session_watcher").Logger(),
		present:   statErr == nil,
		done:      make(chan struct{}),
	}

	go sw.processEvents()
	go sw.processPending()

	return sw, nil
}

// Close stops watching and releases resources.
func (sw *SessionWatcher) Close() error {
	sw.mu.Lock()
	if sw.closed {
		sw.mu.Unlock()
		return nil
	}
	sw.closed = true
	close(sw.done)
	sw.mu.Unlock()
	return sw.watcher.Close()
}

func (sw *SessionWatcher) processEvents() {
	for {
		select {
		case <-sw.done:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != sw.path {
				continue
			}
			sw.mu.Lock()
			sw.dirty = true
			sw.mu.Unlock()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn().Err(err).Msg("Session watcher error")
		}
	}
}

func (sw *SessionWatcher) processPending() {
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			if !sw.dirty {
				sw.mu.Unlock()
				continue
			}
			sw.dirty = false
			_, err := os.Stat(sw.path)
			nowPresent := err == nil
			wasPresent := sw.present
			sw.present = nowPresent
			sw.mu.Unlock()

			if wasPresent && !nowPresent && sw.onCleared != nil {
				sw.logger.Info().Msg("Session file removed externally")
				sw.onCleared()
			}
		}
	}
}
