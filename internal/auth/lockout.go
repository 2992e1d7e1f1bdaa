// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/store"
)

// =============================================================================
// LOGIN LOCKOUT
// =============================================================================

// Lockout enforces the client-side login throttle: after a run of
// consecutive failed logins, further attempts are rejected locally
// until the cooldown deadline passes. The counter and deadline are
// persisted, so restarting steward does not reset the lock.
type Lockout struct {
	db          *store.DB
	maxAttempts int
	cooldown    time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewLockout creates a lockout guard backed by the local database.
func NewLockout(db *store.DB, maxAttempts int, cooldown time.Duration, logger zerolog.Logger) *Lockout {
	return &Lockout{
		db:          db,
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		now:         time.Now,
		logger:      logger.With().Str("component", "lockout").Logger(),
	}
}

// Allowed reports whether a login attempt may proceed. When locked it
// returns the time remaining until the lock releases.
func (l *Lockout) Allowed() (bool, time.Duration) {
	deadline, ok, err := l.db.LockoutDeadline()
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to read lockout deadline")
		return true, 0
	}
	if !ok {
		return true, 0
	}
	remaining := deadline.Sub(l.now())
	if remaining <= 0 {
		return true, 0
	}
	return false, remaining
}

// RecordFailure counts a failed login. Reaching the attempt limit arms
// the cooldown. It returns the updated failure count and whether the
// account is now locked.
func (l *Lockout) RecordFailure() (int, bool) {
	count, err := l.db.RecordLoginFailure(l.now())
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to record login failure")
		return 0, false
	}
	if count < l.maxAttempts {
		return count, false
	}
	deadline := l.now().Add(l.cooldown)
	if err := l.db.SetLockoutDeadline(deadline); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to persist lockout deadline")
	}
	l.logger.Warn().
		Int("failures", count).
		Time("until", deadline).
		Msg("Login locked after repeated failures")
	return count, true
}

// RecordSuccess clears the failure counter and any pending lock.
func (l *Lockout) RecordSuccess() {
	if err := l.db.ClearLoginAttempts(); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to clear login attempts")
	}
}

// ApplyServerLockout arms the lock from a rate-limit response. A zero
// retryAfter falls back to the configured cooldown.
func (l *Lockout) ApplyServerLockout(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = l.cooldown
	}
	deadline := l.now().Add(retryAfter)
	if err := l.db.SetLockoutDeadline(deadline); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to persist server lockout")
	}
	l.logger.Warn().Time("until", deadline).Msg("Login locked by server rate limit")
}
