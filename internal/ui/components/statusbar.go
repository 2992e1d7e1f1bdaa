// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the one-line footer: who is logged in, connectivity,
// and a key hint.
type StatusBar struct {
	width    int
	identity string
	role     string
	online   bool
}

// NewStatusBar creates a status bar assuming connectivity until told
// otherwise.
func NewStatusBar() StatusBar {
	return StatusBar{online: true}
}

// SetWidth sets the render width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetIdentity sets the logged-in name and role shown on the left.
// Empty name means logged out.
func (s *StatusBar) SetIdentity(name, role string) {
	s.identity = name
	s.role = role
}

// SetOnline flips the connectivity indicator.
func (s *StatusBar) SetOnline(online bool) {
	s.online = online
}

// Online reports the last known connectivity.
func (s *StatusBar) Online() bool {
	return s.online
}

// OfflineBanner renders the full-width connectivity banner, or ""
// while online.
func (s StatusBar) OfflineBanner() string {
	if s.online {
		return ""
	}
	msg := "No internet connection. Some features may not work."
	return styles.OfflineBanner.Width(s.width).Render(msg)
}

// View renders the status line.
func (s StatusBar) View() string {
	left := "not signed in"
	if s.identity != "" {
		left = fmt.Sprintf("%s (%s)", s.identity, s.role)
	}

	conn := styles.SuccessText.Render("● online")
	if !s.online {
		conn = styles.ErrorText.Render("● offline")
	}

	hint := styles.Subtle.Render("ctrl+c quit")
	right := conn + "  " + hint

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}
