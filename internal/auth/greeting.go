// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/model"
	"github.com/jeranaias/steward-tui/internal/store"
)

// =============================================================================
// GREETING
// =============================================================================

// Greeter decides between the first-visit and returning-visit greeting
// for an identity on this machine. Each computed greeting refreshes the
// stored marker, so back-to-back logins read as returning.
type Greeter struct {
	db     *store.DB
	now    func() time.Time
	logger zerolog.Logger
}

// NewGreeter creates a greeter backed by the local database.
func NewGreeter(db *store.DB, logger zerolog.Logger) *Greeter {
	return &Greeter{
		db:     db,
		now:    time.Now,
		logger: logger.With().Str("component", "greeter").Logger(),
	}
}

// Greet returns the greeting line for the identity and refreshes its
// marker. Database trouble degrades to the first-visit greeting.
func (g *Greeter) Greet(id model.Identity) string {
	_, seen, err := g.db.LastGreeted(id.ID)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to read greeting marker")
		seen = false
	}
	if err := g.db.MarkGreeted(id.ID, g.now()); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to refresh greeting marker")
	}
	if seen {
		return fmt.Sprintf("Welcome back, %s", id.Name)
	}
	return fmt.Sprintf("Welcome, %s", id.Name)
}

// Forget clears the marker so the identity's next login greets it as
// new. Called on logout.
func (g *Greeter) Forget(id model.Identity) {
	if err := g.db.ClearGreeting(id.ID); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to clear greeting marker")
	}
}
