// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides steward's local persistence.
package store

const (
	// SchemaVersion tracks the database schema for future migrations.
	SchemaVersion = 1
)

// schema is the SQLite schema for the local database: greeting markers,
// login-attempt tracking for the lockout policy, and a small local
// activity log.
const schema = `
-- Key-value table for schema version and the lockout deadline
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Greeting markers: one row per identity that has been welcomed on this
-- machine. greeted_at refreshes on every greeting computation.
CREATE TABLE IF NOT EXISTS greetings (
    identity_id INTEGER PRIMARY KEY,
    greeted_at INTEGER NOT NULL  -- Unix millis
) WITHOUT ROWID;

-- Consecutive failed login attempts. The table is emptied on success,
-- so the row count is the consecutive-failure count.
CREATE TABLE IF NOT EXISTS login_attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    attempted_at INTEGER NOT NULL  -- Unix millis
);

-- Local activity log for the session lifecycle (login, logout, forced
-- logout, lockout). Pruned to a bounded number of rows.
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    at INTEGER NOT NULL,           -- Unix millis
    event TEXT NOT NULL,
    detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_activity_log_at ON activity_log(at);
`
