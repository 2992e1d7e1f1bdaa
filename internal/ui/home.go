// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/steward-tui/internal/api"
	"github.com/jeranaias/steward-tui/internal/ui/styles"
)

// =============================================================================
// HOME VIEW
// =============================================================================

// homeTab selects which resource list the home view shows.
type homeTab int

const (
	tabMembers homeTab = iota
	tabEvents
	tabTestimonials
	tabCount
)

func (t homeTab) String() string {
	switch t {
	case tabEvents:
		return "Events"
	case tabTestimonials:
		return "Testimonials"
	default:
		return "Members"
	}
}

// membersLoadedMsg carries a fetched members page.
type membersLoadedMsg struct {
	page api.Page[api.Member]
	err  error
}

// eventsLoadedMsg carries a fetched events page.
type eventsLoadedMsg struct {
	page api.Page[api.Event]
	err  error
}

// testimonialsLoadedMsg carries a fetched testimonials page.
type testimonialsLoadedMsg struct {
	page api.Page[api.Testimonial]
	err  error
}

// HomeModel is the authenticated dashboard: tabbed resource lists with
// search and pagination.
type HomeModel struct {
	client *api.Client

	greeting string
	tab      homeTab
	page     int
	search   textinput.Model
	filter   bool

	members      api.Page[api.Member]
	events       api.Page[api.Event]
	testimonials api.Page[api.Testimonial]

	loading bool
	spin    spinner.Model
	errMsg  string

	width  int
	height int
}

// NewHomeModel creates the dashboard.
func NewHomeModel(client *api.Client) HomeModel {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 80
	search.Width = 30
	search.Prompt = "/ "

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return HomeModel{
		client: client,
		page:   1,
		search: search,
		spin:   spin,
	}
}

// SetSize sets the terminal dimensions.
func (m *HomeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetGreeting sets the welcome line shown at the top.
func (m *HomeModel) SetGreeting(greeting string) {
	m.greeting = greeting
}

// Load returns the command fetching the active tab's current page.
func (m *HomeModel) Load() tea.Cmd {
	m.loading = true
	m.errMsg = ""
	opts := api.ListOptions{Page: m.page, Search: strings.TrimSpace(m.search.Value())}
	client := m.client

	var fetch tea.Cmd
	switch m.tab {
	case tabEvents:
		fetch = func() tea.Msg {
			page, err := client.ListEvents(context.Background(), opts)
			return eventsLoadedMsg{page: page, err: err}
		}
	case tabTestimonials:
		fetch = func() tea.Msg {
			page, err := client.ListTestimonials(context.Background(), opts)
			return testimonialsLoadedMsg{page: page, err: err}
		}
	default:
		fetch = func() tea.Msg {
			page, err := client.ListMembers(context.Background(), opts)
			return membersLoadedMsg{page: page, err: err}
		}
	}
	return tea.Batch(fetch, m.spin.Tick)
}

// Update handles dashboard input and fetch outcomes.
func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filter {
			switch msg.String() {
			case "enter":
				m.filter = false
				m.search.Blur()
				m.page = 1
				return m, m.Load()
			case "esc":
				m.filter = false
				m.search.Blur()
				m.search.SetValue("")
				return m, m.Load()
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			m.page = 1
			return m, m.Load()
		case "/":
			m.filter = true
			return m, m.search.Focus()
		case "n", "right":
			if m.currentMeta().CurrentPage < m.currentMeta().LastPage {
				m.page++
				return m, m.Load()
			}
		case "p", "left":
			if m.page > 1 {
				m.page--
				return m, m.Load()
			}
		case "r":
			return m, m.Load()
		}

	case membersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorLine(msg.err)
			return m, nil
		}
		m.members = msg.page
		return m, nil

	case eventsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorLine(msg.err)
			return m, nil
		}
		m.events = msg.page
		return m, nil

	case testimonialsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorLine(msg.err)
			return m, nil
		}
		m.testimonials = msg.page
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func errorLine(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

func (m HomeModel) currentMeta() api.Meta {
	switch m.tab {
	case tabEvents:
		return m.events.Meta
	case tabTestimonials:
		return m.testimonials.Meta
	default:
		return m.members.Meta
	}
}

// View renders the dashboard.
func (m HomeModel) View() string {
	var b strings.Builder

	if m.greeting != "" {
		b.WriteString(styles.Title.Render(m.greeting))
		b.WriteString("\n\n")
	}

	var tabs []string
	for t := homeTab(0); t < tabCount; t++ {
		label := " " + t.String() + " "
		if t == m.tab {
			tabs = append(tabs, styles.Title.Render(label))
		} else {
			tabs = append(tabs, styles.Subtle.Render(label))
		}
	}
	b.WriteString(strings.Join(tabs, "│"))
	b.WriteString("\n\n")

	if m.filter || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(m.spin.View() + " Loading...")
	case m.errMsg != "":
		b.WriteString(styles.ErrorText.Render(m.errMsg))
	default:
		b.WriteString(m.listView())
	}
	b.WriteString("\n\n")

	meta := m.currentMeta()
	footer := fmt.Sprintf("page %d/%d · %d total", max(meta.CurrentPage, 1), max(meta.LastPage, 1), meta.Total)
	b.WriteString(styles.Subtle.Render(footer + "  ·  tab switch · / search · n/p page · r refresh · ctrl+l sign out"))

	return b.String()
}

func (m HomeModel) listView() string {
	var rows []string
	switch m.tab {
	case tabEvents:
		for _, e := range m.events.Items {
			rows = append(rows, fmt.Sprintf("%s  %s", pad(e.Title, 32), styles.Subtle.Render(e.Date)))
		}
	case tabTestimonials:
		for _, t := range m.testimonials.Items {
			rows = append(rows, fmt.Sprintf("%s  %s", pad(t.Name, 24), truncate(t.Message, 48)))
		}
	default:
		for _, mem := range m.members.Items {
			rows = append(rows, fmt.Sprintf("%s  %s", pad(mem.Name, 24), styles.Subtle.Render(mem.Email)))
		}
	}
	if len(rows) == 0 {
		return styles.Subtle.Render("Nothing here yet.")
	}
	return strings.Join(rows, "\n")
}

func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(strings.ReplaceAll(s, "\n", " "), width, "…")
}
