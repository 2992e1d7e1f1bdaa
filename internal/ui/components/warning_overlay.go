// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the steward TUI.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// =============================================================================
// SESSION WARNING OVERLAY
// =============================================================================

// WarningOverlay is the countdown shown before an inactivity logout.
// The bar drains from full to empty across the warning window.
type WarningOverlay struct {
	visible       bool
	secondsLeft   int
	windowSeconds int
	bar           progress.Model

	width  int
	height int
}

// NewWarningOverlay creates the overlay. windowSeconds is the full
// warning window the countdown bar is scaled against.
func NewWarningOverlay(windowSeconds int) WarningOverlay {
	bar := progress.New(
		progress.WithSolidFill("#FBBF24"),
		progress.WithoutPercentage(),
	)
	bar.Width = 40
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	return WarningOverlay{
		windowSeconds: windowSeconds,
		bar:           bar,
	}
}

// SetSize sets the terminal dimensions used for centering.
func (o *WarningOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Show displays the overlay with the given seconds remaining. Calling
// Show on a visible overlay just updates the countdown.
func (o *WarningOverlay) Show(secondsLeft int) {
	o.visible = true
	o.secondsLeft = secondsLeft
}

// Hide dismisses the overlay.
func (o *WarningOverlay) Hide() {
	o.visible = false
}

// Visible reports whether the overlay is showing.
func (o *WarningOverlay) Visible() bool {
	return o.visible
}

// SecondsLeft returns the current countdown value.
func (o *WarningOverlay) SecondsLeft() int {
	return o.secondsLeft
}

// View renders the overlay centered in the terminal, or "" when
// hidden.
func (o WarningOverlay) View() string {
	if !o.visible {
		return ""
	}

	// Fraction of the warning window left, clamped to [0, 1].
	frac := float64(o.secondsLeft) / float64(o.windowSeconds)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	title := styles.WarningText.Bold(true).Render("Session Expiring")
	body := fmt.Sprintf("You will be logged out in %d seconds due to inactivity.", o.secondsLeft)
	hint := styles.Subtle.Render("Press any key to stay logged in")

	box := styles.WarningPanel.Render(lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		body,
		"",
		o.bar.ViewAs(frac),
		"",
		hint,
	))

	if o.width == 0 || o.height == 0 {
		return box
	}
	return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, box)
}
