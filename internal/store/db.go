// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides steward's local persistence.
//
// The local database carries the durable odds and ends around the
// session record: greeting markers, login-attempt counting for the
// lockout policy, and an activity log.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DBFileName is the local database file under the data directory.
const DBFileName = "steward.db"

// activityLogLimit bounds the activity log; older rows are pruned.
const activityLogLimit = 500

const lockoutDeadlineKey = "lockout_deadline_ms"

// DB is the local SQLite database.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenDB opens (and if needed creates) the local database in dir.
func OpenDB(dir string, logger zerolog.Logger) (*DB, error) {
	path := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Single local writer; WAL keeps reads cheap, busy_timeout covers a
	// second steward instance touching the same file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO kv(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, strconv.Itoa(SchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	return &DB{
		db:     db,
		logger: logger.With().Str("component", "db").Logger(),
	}, nil
}

// Close releases the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// =============================================================================
// GREETING MARKERS
// =============================================================================

// LastGreeted returns when the identity was last greeted on this
// machine, and whether it ever was.
func (d *DB) LastGreeted(identityID int64) (time.Time, bool, error) {
	var ms int64
	err := d.db.QueryRow(
		`SELECT greeted_at FROM greetings WHERE identity_id = ?`, identityID).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query greeting: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

// MarkGreeted refreshes the greeting marker for the identity.
func (d *DB) MarkGreeted(identityID int64, at time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO greetings(identity_id, greeted_at) VALUES(?, ?)
		 ON CONFLICT(identity_id) DO UPDATE SET greeted_at = excluded.greeted_at`,
		identityID, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to mark greeting: %w", err)
	}
	return nil
}

// ClearGreeting removes the greeting marker for the identity, so the
// next login greets it as new again.
func (d *DB) ClearGreeting(identityID int64) error {
	if _, err := d.db.Exec(`DELETE FROM greetings WHERE identity_id = ?`, identityID); err != nil {
		return fmt.Errorf("failed to clear greeting: %w", err)
	}
	return nil
}

// =============================================================================
// LOGIN ATTEMPTS AND LOCKOUT
// =============================================================================

// RecordLoginFailure appends a failed attempt and returns the new
// consecutive-failure count.
func (d *DB) RecordLoginFailure(at time.Time) (int, error) {
	if _, err := d.db.Exec(
		`INSERT INTO login_attempts(attempted_at) VALUES(?)`, at.UnixMilli()); err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	return d.ConsecutiveFailures()
}

// ConsecutiveFailures returns the current consecutive-failure count.
func (d *DB) ConsecutiveFailures() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM login_attempts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count login failures: %w", err)
	}
	return n, nil
}

// ClearLoginAttempts resets the consecutive-failure count and removes
// any lockout deadline. Called on successful login.
func (d *DB) ClearLoginAttempts() error {
	if _, err := d.db.Exec(`DELETE FROM login_attempts`); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	if _, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, lockoutDeadlineKey); err != nil {
		return fmt.Errorf("failed to clear lockout deadline: %w", err)
	}
	return nil
}

// SetLockoutDeadline persists the moment the login lock releases. The
// deadline survives restarts.
func (d *DB) SetLockoutDeadline(deadline time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO kv(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lockoutDeadlineKey, strconv.FormatInt(deadline.UnixMilli(), 10))
	if err != nil {
		return fmt.Errorf("failed to set lockout deadline: %w", err)
	}
	return nil
}

// LockoutDeadline returns the persisted lockout deadline, if any.
func (d *DB) LockoutDeadline() (time.Time, bool, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, lockoutDeadlineKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query lockout deadline: %w", err)
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// A mangled deadline unlocks rather than locking forever.
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// LogEvent appends a session-lifecycle event to the local activity log.
func (d *DB) LogEvent(event, detail string) error {
	if _, err := d.db.Exec(
		`INSERT INTO activity_log(at, event, detail) VALUES(?, ?, ?)`,
		time.Now().UnixMilli(), event, detail); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	_, err := d.db.Exec(
		`DELETE FROM activity_log WHERE id NOT IN
		 (SELECT id FROM activity_log ORDER BY id DESC LIMIT ?)`, activityLogLimit)
	if err != nil {
		return fmt.Errorf("failed to prune activity log: %w", err)
	}
	return nil
}

// ActivityEntry is one row of the local activity log.
type ActivityEntry struct {
	At     time.Time
	Event  string
	Detail string
}

// RecentActivity returns up to limit recent activity entries, newest
// first.
func (d *DB) RecentActivity(limit int) ([]ActivityEntry, error) {
	rows, err := d.db.Query(
		`SELECT at, event, COALESCE(detail, '') FROM activity_log
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var ms int64
		var e ActivityEntry
		if err := rows.Scan(&ms, &e.Event, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		e.At = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
