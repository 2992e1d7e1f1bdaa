// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/steward-tui/internal/api"
	"github.com/jeranaias/steward-tui/internal/auth"
	"github.com/jeranaias/steward-tui/internal/model"
	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN VIEW
// =============================================================================

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	identity model.Identity
	err      error
}

// lockoutTickMsg drives the lockout countdown shown on the form.
type lockoutTickMsg struct{}

// LoginModel is the credential form.
type LoginModel struct {
	ctrl *auth.Controller

	email    textinput.Model
	password textinput.Model
	focus    int

	busy        bool
	errMsg      string
	emailErr    string
	passwordErr string
	lockedUntil time.Time

	width int
}

// NewLoginModel creates the login form with the email field focused.
func NewLoginModel(ctrl *auth.Controller) LoginModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Width = 36
	email.Prompt = "> "
	email.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	email.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.Width = 36
	password.Prompt = "> "
	password.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	password.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return LoginModel{
		ctrl:     ctrl,
		email:    email,
		password: password,
	}
}

// SetWidth sets the render width.
func (m *LoginModel) SetWidth(width int) {
	m.width = width
}

// Reset clears the form for a fresh login, keeping the email so a
// timed-out user can sign straight back in.
func (m *LoginModel) Reset() {
	m.password.SetValue("")
	m.busy = false
	m.errMsg = ""
	m.emailErr = ""
	m.passwordErr = ""
	m.focus = 0
	m.email.Focus()
	m.password.Blur()
}

// Update handles form input and login outcomes.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.password.Blur()
				return m, m.email.Focus()
			}
			m.email.Blur()
			return m, m.password.Focus()
		case "enter":
			return m.submit()
		}

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.applyError(msg.err)
			return m, m.lockoutTick()
		}
		// Success is announced through the auth event stream.
		return m, nil

	case lockoutTickMsg:
		if m.locked() {
			return m, m.lockoutTick()
		}
		m.errMsg = ""
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m LoginModel) submit() (LoginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()

	m.emailErr = ""
	m.passwordErr = ""
	m.errMsg = ""
	if email == "" {
		m.emailErr = "Email is required."
	}
	if password == "" {
		m.passwordErr = "Password is required."
	}
	if m.emailErr != "" || m.passwordErr != "" {
		return m, nil
	}

	m.busy = true
	ctrl := m.ctrl
	return m, func() tea.Msg {
		identity, err := ctrl.Login(context.Background(), email, password)
		return loginResultMsg{identity: identity, err: err}
	}
}

func (m *LoginModel) applyError(err error) {
	var lockErr *auth.ErrLockedOut
	if errors.As(err, &lockErr) {
		m.lockedUntil = time.Now().Add(lockErr.Remaining)
		m.errMsg = lockErr.Error()
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case api.IsValidation(err):
			m.emailErr = apiErr.FieldError("email")
			m.passwordErr = apiErr.FieldError("password")
			if m.emailErr == "" && m.passwordErr == "" {
				m.errMsg = apiErr.UserMessage()
			}
		case api.IsRateLimited(err):
			m.lockedUntil = time.Now().Add(apiErr.RetryAfter)
			m.errMsg = apiErr.UserMessage()
		default:
			m.errMsg = apiErr.UserMessage()
		}
		return
	}
	m.errMsg = err.Error()
}

func (m LoginModel) locked() bool {
	return time.Now().Before(m.lockedUntil)
}

func (m LoginModel) lockoutTick() tea.Cmd {
	if !m.locked() {
		return nil
	}
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return lockoutTickMsg{}
	})
}

// View renders the login form.
func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Steward"))
	b.WriteString("\n")
	b.WriteString(styles.Subtle.Render("Church administration console"))
	b.WriteString("\n\n")

	b.WriteString(m.email.View())
	b.WriteString("\n")
	if m.emailErr != "" {
		b.WriteString(styles.ErrorText.Render(m.emailErr))
		b.WriteString("\n")
	}
	b.WriteString(m.password.View())
	b.WriteString("\n")
	if m.passwordErr != "" {
		b.WriteString(styles.ErrorText.Render(m.passwordErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(styles.Subtle.Render("Signing in..."))
	case m.locked():
		secs := int(time.Until(m.lockedUntil).Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		b.WriteString(styles.ErrorText.Render(
			fmt.Sprintf("Too many failed attempts. Try again in %d seconds.", secs)))
	case m.errMsg != "":
		b.WriteString(styles.ErrorText.Render(m.errMsg))
	default:
		b.WriteString(styles.Subtle.Render("enter to sign in · tab to switch fields"))
	}

	return styles.Panel.Render(b.String())
}
