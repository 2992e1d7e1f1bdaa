// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/model"
)

func testSession() model.Session {
	return model.Session{
		Identity: model.Identity{
			ID:    7,
			Name:  "Grace Okafor",
			Role:  model.RoleAdmin,
			Email: "grace@example.org",
		},
		Credential:   "bearer-token-abc123",
		LastActivity: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := OpenSessionStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestSessionStore(t)
	want := testSession()

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Identity != want.Identity {
		t.Errorf("Identity = %+v, want %+v", got.Identity, want.Identity)
	}
	if got.Credential != want.Credential {
		t.Errorf("Credential = %q, want %q", got.Credential, want.Credential)
	}
	if !got.LastActivity.Equal(want.LastActivity) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, want.LastActivity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestSessionStore(t)
	if _, err := s.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load = %v, want ErrNoSession", err)
	}
}

func TestCredentialIsNotStoredInTheClear(t *testing.T) {
	s := newTestSessionStore(t)
	sess := testSession()
	if err := s.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "" {
		t.Fatal("empty record file")
	}
	if bytes.Contains(raw, []byte(sess.Credential)) {
		t.Error("plaintext credential found in the session file")
	}
}

func TestCorruptRecordIsClearedAndAbsent(t *testing.T) {
	s := newTestSessionStore(t)
	if err := s.Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := os.WriteFile(s.Path(), []byte("{{{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load = %v, want ErrNoSession", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("corrupt record was not removed")
	}
}

func TestPartialRecordIsClearedAndAbsent(t *testing.T) {
	partials := []string{
		`{"credential":"x","last_activity":"1700000000000"}`,
		`{"identity":{"id":7,"name":"G","role":"admin","email":"g@e.org"},"last_activity":"1700000000000"}`,
		`{"identity":{"id":7,"name":"G","role":"admin","email":"g@e.org"},"credential":"x"}`,
		`{"identity":{"id":7,"name":"G","role":"admin","email":"g@e.org"},"credential":"x","last_activity":"yesterday"}`,
	}
	for _, partial := range partials {
		s := newTestSessionStore(t)
		if err := os.WriteFile(s.Path(), []byte(partial), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Load(); !errors.Is(err, ErrNoSession) {
			t.Errorf("Load(%s) = %v, want ErrNoSession", partial, err)
		}
		if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
			t.Errorf("partial record %s was not removed", partial)
		}
	}
}

func TestTamperedCredentialIsClearedAndAbsent(t *testing.T) {
	s := newTestSessionStore(t)
	if err := s.Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatal(err)
	}
	record["credential"] = json.RawMessage(`"bm90IGEgdmFsaWQgc2VhbGVkIGJsb2I="`)
	tampered, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), tampered, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load = %v, want ErrNoSession", err)
	}
}

func TestTouchUpdatesOnlyLastActivity(t *testing.T) {
	s := newTestSessionStore(t)
	sess := testSession()
	if err := s.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	later := sess.LastActivity.Add(5 * time.Minute)
	if err := s.Touch(later); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.LastActivity.Equal(later) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, later)
	}
	if got.Identity != sess.Identity || got.Credential != sess.Credential {
		t.Error("Touch changed more than the timestamp")
	}
}

func TestTouchWithoutRecordIsNoOp(t *testing.T) {
	s := newTestSessionStore(t)
	if err := s.Touch(time.Now()); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("Touch created a record out of nothing")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := newTestSessionStore(t)
	if err := s.Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestRecordFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	s := newTestSessionStore(t)
	if err := s.Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
}
