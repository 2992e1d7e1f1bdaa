// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// TERMINAL CAPABILITIES
// =============================================================================

// Terminal describes the detected terminal capabilities.
type Terminal struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile
}

// DetectTerminal probes the terminal once at startup. AdaptiveColor
// resolves against the same detection, so callers only need this for
// logging and degraded-terminal decisions.
func DetectTerminal() Terminal {
	profile := termenv.ColorProfile()
	return Terminal{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
}

// =============================================================================
// SHARED STYLES
// =============================================================================

// Title styles view headings.
var Title = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// Subtle styles hints and secondary text.
var Subtle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorText styles error lines.
var ErrorText = lipgloss.NewStyle().
	Foreground(Rose)

// WarningText styles warning lines.
var WarningText = lipgloss.NewStyle().
	Foreground(Amber)

// SuccessText styles success lines.
var SuccessText = lipgloss.NewStyle().
	Foreground(Emerald)

// Panel frames a boxed component.
var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(1, 2)

// WarningPanel frames the session countdown overlay.
var WarningPanel = lipgloss.NewStyle().
	Border(lipgloss.ThickBorder()).
	BorderForeground(Amber).
	Padding(1, 3)

// StatusBar styles the bottom status line.
var StatusBar = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(TextPrimary).
	Padding(0, 1)

// OfflineBanner styles the connectivity banner.
var OfflineBanner = lipgloss.NewStyle().
	Background(Rose).
	Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}).
	Bold(true).
	Padding(0, 1)
