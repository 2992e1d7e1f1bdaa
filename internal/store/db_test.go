// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGreetingMarkerLifecycle(t *testing.T) {
	db := newTestDB(t)

	_, seen, err := db.LastGreeted(7)
	if err != nil {
		t.Fatalf("LastGreeted: %v", err)
	}
	if seen {
		t.Fatal("fresh database reported an existing greeting")
	}

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := db.MarkGreeted(7, at); err != nil {
		t.Fatalf("MarkGreeted: %v", err)
	}

	got, seen, err := db.LastGreeted(7)
	if err != nil {
		t.Fatalf("LastGreeted: %v", err)
	}
	if !seen || !got.Equal(at) {
		t.Errorf("LastGreeted = (%v, %v), want (%v, true)", got, seen, at)
	}

	// Refreshing moves the marker.
	later := at.Add(time.Hour)
	if err := db.MarkGreeted(7, later); err != nil {
		t.Fatalf("MarkGreeted refresh: %v", err)
	}
	got, _, err = db.LastGreeted(7)
	if err != nil {
		t.Fatalf("LastGreeted: %v", err)
	}
	if !got.Equal(later) {
		t.Errorf("refreshed marker = %v, want %v", got, later)
	}

	if err := db.ClearGreeting(7); err != nil {
		t.Fatalf("ClearGreeting: %v", err)
	}
	_, seen, err = db.LastGreeted(7)
	if err != nil {
		t.Fatalf("LastGreeted: %v", err)
	}
	if seen {
		t.Error("marker survived ClearGreeting")
	}
}

func TestGreetingMarkersArePerIdentity(t *testing.T) {
	db := newTestDB(t)

	if err := db.MarkGreeted(1, time.Now()); err != nil {
		t.Fatal(err)
	}
	_, seen, err := db.LastGreeted(2)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("identity 2 inherited identity 1's marker")
	}
}

func TestLoginFailureCounting(t *testing.T) {
	db := newTestDB(t)

	for i := 1; i <= 3; i++ {
		count, err := db.RecordLoginFailure(time.Now())
		if err != nil {
			t.Fatalf("RecordLoginFailure: %v", err)
		}
		if count != i {
			t.Errorf("count = %d, want %d", count, i)
		}
	}

	if err := db.ClearLoginAttempts(); err != nil {
		t.Fatalf("ClearLoginAttempts: %v", err)
	}
	count, err := db.ConsecutiveFailures()
	if err != nil {
		t.Fatalf("ConsecutiveFailures: %v", err)
	}
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}
}

func TestLockoutDeadlinePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}

	deadline := time.Now().Add(4 * time.Minute).Truncate(time.Millisecond)
	if err := db.SetLockoutDeadline(deadline); err != nil {
		t.Fatalf("SetLockoutDeadline: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = OpenDB(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, ok, err := db.LockoutDeadline()
	if err != nil {
		t.Fatalf("LockoutDeadline: %v", err)
	}
	if !ok {
		t.Fatal("deadline lost across reopen")
	}
	if !got.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", got, deadline)
	}
}

func TestClearLoginAttemptsRemovesDeadline(t *testing.T) {
	db := newTestDB(t)

	if err := db.SetLockoutDeadline(time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearLoginAttempts(); err != nil {
		t.Fatal(err)
	}
	_, ok, err := db.LockoutDeadline()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("deadline survived ClearLoginAttempts")
	}
}

func TestActivityLogRecordsAndPrunes(t *testing.T) {
	db := newTestDB(t)

	if err := db.LogEvent("login", "grace@example.org"); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if err := db.LogEvent("logout", "user"); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	entries, err := db.RecentActivity(10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Event != "logout" || entries[1].Event != "login" {
		t.Errorf("order = %q, %q", entries[0].Event, entries[1].Event)
	}
}
