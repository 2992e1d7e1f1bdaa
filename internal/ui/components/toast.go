// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// =============================================================================
// TOAST
// =============================================================================

// ToastKind selects the toast styling.
type ToastKind int

const (
	ToastError ToastKind = iota
	ToastWarning
	ToastSuccess
)

// toastDuration is how long a toast stays up without interaction.
const toastDuration = 5 * time.Second

// ToastExpiredMsg signals a toast's display window elapsed.
type ToastExpiredMsg struct {
	ID int
}

// Toast is a transient notification line.
type Toast struct {
	visible bool
	message string
	kind    ToastKind
	id      int
}

// NewToast creates a hidden toast.
func NewToast() Toast {
	return Toast{}
}

// Show displays a message and returns the command that will expire it.
func (t *Toast) Show(message string, kind ToastKind) tea.Cmd {
	t.visible = true
	t.message = message
	t.kind = kind
	t.id++
	id := t.id
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Update hides the toast when its own expiry arrives. A newer Show
// supersedes an older expiry.
func (t *Toast) Update(msg tea.Msg) {
	if exp, ok := msg.(ToastExpiredMsg); ok && exp.ID == t.id {
		t.visible = false
	}
}

// Visible reports whether the toast is showing.
func (t *Toast) Visible() bool {
	return t.visible
}

// View renders the toast, or "" when hidden.
func (t Toast) View() string {
	if !t.visible {
		return ""
	}
	switch t.kind {
	case ToastSuccess:
		return styles.SuccessText.Render("✓ " + t.message)
	case ToastWarning:
		return styles.WarningText.Render("! " + t.message)
	default:
		return styles.ErrorText.Render("✗ " + t.message)
	}
}
