// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui is the steward terminal interface: a login form, the
// authenticated dashboard, and the session lifecycle chrome layered on
// top (countdown overlay, toasts, connectivity banner).
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jeranaias/steward-tui/internal/api"
	"github.com/jeranaias/steward-tui/internal/auth"
	"github.com/jeranaias/steward-tui/internal/session"
	"github.com/jeranaias/steward-tui/internal/ui/components"
)

// =============================================================================
// MESSAGES
// =============================================================================

// AuthEventMsg wraps an auth lifecycle event for the update loop.
type AuthEventMsg struct {
	Event auth.Event
}

// ConnectivityMsg reports an online/offline transition.
type ConnectivityMsg struct {
	Online bool
}

// redirectMsg moves the UI back to the login view after the brief
// post-logout pause.
type redirectMsg struct{}

// redirectDelay is the pause between a forced logout notice appearing
// and the switch to the login form.
const redirectDelay = 300 * time.Millisecond

// =============================================================================
// APP MODEL
// =============================================================================

type viewID int

const (
	viewLogin viewID = iota
	viewHome
)

// App is the root bubbletea model.
type App struct {
	ctrl    *auth.Controller
	tracker *session.Tracker
	logger  zerolog.Logger

	view  viewID
	login LoginModel
	home  HomeModel

	overlay components.WarningOverlay
	toast   components.Toast
	status  components.StatusBar

	width  int
	height int
}

// NewApp wires the root model. warningWindowSeconds scales the
// countdown bar in the expiry overlay.
func NewApp(ctrl *auth.Controller, tracker *session.Tracker, client *api.Client, warningWindowSeconds int, logger zerolog.Logger) App {
	return App{
		ctrl:    ctrl,
		tracker: tracker,
		logger:  logger.With().Str("component", "ui").Logger(),
		view:    viewLogin,
		login:   NewLoginModel(ctrl),
		home:    NewHomeModel(client),
		overlay: components.NewWarningOverlay(warningWindowSeconds),
		toast:   components.NewToast(),
		status:  components.NewStatusBar(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Every keystroke, click and focus change counts as activity while
	// a session is live.
	a.tracker.Observe(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.overlay.SetSize(msg.Width, msg.Height)
		a.status.SetWidth(msg.Width)
		a.login.SetWidth(msg.Width)
		a.home.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Quit without logging out; the persisted session is
			// restored on the next start.
			return a, tea.Quit
		}
		if a.overlay.Visible() {
			// Any key inside the warning window keeps the session.
			a.ctrl.StayLoggedIn()
			a.overlay.Hide()
			return a, nil
		}
		if a.view == viewHome && msg.String() == "ctrl+l" {
			ctrl := a.ctrl
			return a, func() tea.Msg {
				ctrl.Logout()
				return nil
			}
		}

	case AuthEventMsg:
		return a.handleAuthEvent(msg.Event)

	case ConnectivityMsg:
		a.status.SetOnline(msg.Online)
		return a, nil

	case redirectMsg:
		a.view = viewLogin
		a.login.Reset()
		return a, nil

	case components.ToastExpiredMsg:
		a.toast.Update(msg)
		return a, nil
	}

	return a.routeToView(msg)
}

func (a App) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	default:
		a.login, cmd = a.login.Update(msg)
	}
	return a, cmd
}

func (a App) handleAuthEvent(ev auth.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case auth.LoggedInEvent:
		a.view = viewHome
		a.overlay.Hide()
		a.status.SetIdentity(ev.Identity.Name, string(ev.Identity.Role))
		a.home.SetGreeting(ev.Greeting)
		return a, a.home.Load()

	case auth.WarningEvent:
		if a.view != viewHome {
			return a, nil
		}
		a.overlay.Show(ev.SecondsRemaining)
		return a, nil

	case auth.LoggedOutEvent:
		a.overlay.Hide()
		a.status.SetIdentity("", "")
		var cmds []tea.Cmd
		if ev.Message != "" {
			cmds = append(cmds, a.toast.Show(ev.Message, components.ToastWarning))
		}
		cmds = append(cmds, tea.Tick(redirectDelay, func(time.Time) tea.Msg {
			return redirectMsg{}
		}))
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	if a.overlay.Visible() {
		return a.overlay.View()
	}

	var body string
	switch a.view {
	case viewHome:
		body = a.home.View()
	default:
		body = a.login.View()
	}

	sections := []string{}
	if banner := a.status.OfflineBanner(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, body)
	if a.toast.Visible() {
		sections = append(sections, a.toast.View())
	}
	sections = append(sections, a.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
