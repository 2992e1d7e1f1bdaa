// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestWarningOverlayHiddenByDefault(t *testing.T) {
	o := NewWarningOverlay(60)
	if o.Visible() {
		t.Fatal("overlay visible before Show")
	}
	if o.View() != "" {
		t.Fatal("hidden overlay rendered output")
	}
}

func TestWarningOverlayShowsCountdown(t *testing.T) {
	o := NewWarningOverlay(60)
	o.Show(42)

	if !o.Visible() {
		t.Fatal("overlay not visible after Show")
	}
	view := o.View()
	if !strings.Contains(view, "42 seconds") {
		t.Errorf("view missing countdown: %q", view)
	}
	if !strings.Contains(view, "stay logged in") {
		t.Errorf("view missing the keep-alive hint: %q", view)
	}
}

func TestWarningOverlayUpdatesEveryShow(t *testing.T) {
	o := NewWarningOverlay(60)
	o.Show(10)
	o.Show(9)
	if o.SecondsLeft() != 9 {
		t.Errorf("SecondsLeft = %d, want 9", o.SecondsLeft())
	}
}

func TestWarningOverlayToleratesOutOfRangeSeconds(t *testing.T) {
	o := NewWarningOverlay(60)

	// The bar clamps rather than panicking on values outside the window.
	o.Show(900)
	if o.View() == "" {
		t.Fatal("no render for an oversized countdown")
	}
	o.Show(-5)
	if o.View() == "" {
		t.Fatal("no render for a negative countdown")
	}
}

func TestWarningOverlayHide(t *testing.T) {
	o := NewWarningOverlay(60)
	o.Show(30)
	o.Hide()
	if o.Visible() || o.View() != "" {
		t.Fatal("overlay still visible after Hide")
	}
}
