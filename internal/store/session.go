// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides steward's local persistence.
//
// The session record is a single JSON document holding the identity, the
// sealed credential and the last-activity timestamp. Keeping all three in
// one atomically written file makes the all-or-nothing invariant
// structural: the record is either fully present or absent, and anything
// in between is treated as absent and removed.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/model"
)

// SessionFileName is the session record file under the data directory.
const SessionFileName = "session.json"

// ErrNoSession means no restorable session record exists.
var ErrNoSession = errors.New("store: no session record")

// SessionStore persists the session record.
type SessionStore struct {
	path   string
	box    *credentialBox
	logger zerolog.Logger
	mu     sync.Mutex
}

// sessionRecord is the on-disk shape. The last-activity timestamp is a
// string of epoch milliseconds, matching what the console's predecessors
// stored and keeping the field survivable through tools that mangle
// large JSON numbers.
type sessionRecord struct {
	Identity     *model.Identity `json:"identity"`
	Credential   string          `json:"credential"`
	LastActivity string          `json:"last_activity"`
}

// OpenSessionStore creates a session store rooted at dir.
func OpenSessionStore(dir string, logger zerolog.Logger) (*SessionStore, error) {
	box, err := openCredentialBox(dir)
	if err != nil {
		return nil, err
	}
	return &SessionStore{
		path:   filepath.Join(dir, SessionFileName),
		box:    box,
		logger: logger.With().Str("component", "session_store").Logger(),
	}, nil
}

// Path returns the session record path, used by the change watcher.
func (s *SessionStore) Path() string {
	return s.path
}

// Save writes the full session record atomically with owner-only
// permissions.
func (s *SessionStore) Save(sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.box.seal(sess.Credential)
	if err != nil {
		return fmt.Errorf("failed to seal credential: %w", err)
	}

	record := sessionRecord{
		Identity:     &sess.Identity,
		Credential:   sealed,
		LastActivity: strconv.FormatInt(sess.LastActivity.UnixMilli(), 10),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	return writeFileAtomic(s.path, data, 0600)
}

// Load reads the session record. A missing file returns ErrNoSession.
// A record that is partial, unparseable or unopenable is cleared and
// also reported as ErrNoSession; corruption never reaches the caller as
// a distinct failure mode.
func (s *SessionStore) Load() (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SessionStore) loadLocked() (model.Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return model.Session{}, ErrNoSession
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to read session record: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn().Err(err).Msg("session record unparseable; clearing")
		s.clearLocked()
		return model.Session{}, ErrNoSession
	}

	if record.Identity == nil || !record.Identity.Valid() ||
		record.Credential == "" || record.LastActivity == "" {
		s.logger.Warn().Msg("session record incomplete; clearing")
		s.clearLocked()
		return model.Session{}, ErrNoSession
	}

	lastMs, err := strconv.ParseInt(record.LastActivity, 10, 64)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session record timestamp invalid; clearing")
		s.clearLocked()
		return model.Session{}, ErrNoSession
	}

	credential, err := s.box.open(record.Credential)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session credential unopenable; clearing")
		s.clearLocked()
		return model.Session{}, ErrNoSession
	}

	return model.Session{
		Identity:     *record.Identity,
		Credential:   credential,
		LastActivity: time.UnixMilli(lastMs),
	}, nil
}

// Touch updates only the last-activity timestamp of an existing record.
// Without a record it is a no-op.
func (s *SessionStore) Touch(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadLocked()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	sealed, err := s.box.seal(sess.Credential)
	if err != nil {
		return fmt.Errorf("failed to seal credential: %w", err)
	}
	record := sessionRecord{
		Identity:     &sess.Identity,
		Credential:   sealed,
		LastActivity: strconv.FormatInt(at.UnixMilli(), 10),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	return writeFileAtomic(s.path, data, 0600)
}

// Clear removes the session record. Idempotent.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *SessionStore) clearLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}

// writeFileAtomic writes data through a temp file in the same directory
// followed by a rename, so a crash leaves either the old record or the
// new one, never a torn write.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".steward-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
