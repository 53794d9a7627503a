// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the login page: username and password inputs
// against the backend's login endpoint.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/ui/styles"
)

// SuccessMsg is emitted when login succeeds. The app routes on it.
type SuccessMsg struct {
	User *api.User
}

// resultMsg carries the outcome of the login request back into Update.
type resultMsg struct {
	user *api.User
	err  error
}

const (
	fieldUsername = iota
	fieldPassword
	fieldCount
)

// Model is the login page.
type Model struct {
	client *api.Client
	theme  *styles.Theme

	inputs  [fieldCount]textinput.Model
	focus   int
	busy    bool
	errText string
	spin    spinner.Model

	width int
}

// New creates the login page model.
func New(client *api.Client, theme *styles.Theme) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner

	return Model{
		client: client,
		theme:  theme,
		inputs: [fieldCount]textinput.Model{username, password},
		spin:   s,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		return m, func() tea.Msg { return SuccessMsg{User: msg.user} }

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
			m.inputs[m.focus].Blur()
			if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
				m.focus = (m.focus + fieldCount - 1) % fieldCount
			} else {
				m.focus = (m.focus + 1) % fieldCount
			}
			m.inputs[m.focus].Focus()
			return m, nil

		case tea.KeyEnter:
			if m.focus == fieldUsername {
				m.inputs[fieldUsername].Blur()
				m.focus = fieldPassword
				m.inputs[fieldPassword].Focus()
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submit starts the login request.
func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.errText = "Enter a username and password."
		return m, nil
	}

	m.busy = true
	m.errText = ""
	client := m.client
	return m, tea.Batch(
		m.spin.Tick,
		func() tea.Msg {
			user, err := client.Login(context.Background(), username, password)
			return resultMsg{user: user, err: err}
		},
	)
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	var b strings.Builder
	b.WriteString(t.HeaderTitle.Render("stylist"))
	b.WriteString("\n")
	b.WriteString(t.HeaderSubtitle.Render("your AI shopping stylist"))
	b.WriteString("\n\n")

	labels := [fieldCount]string{"Username", "Password"}
	for i, input := range m.inputs {
		label := t.FormLabel.Render(labels[i])
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, input.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spin.View() + t.ThinkingText.Render(" logging in..."))
	case m.errText != "":
		b.WriteString(t.ErrorBox.Render(m.errText))
	default:
		b.WriteString(t.FormHint.Render("enter to log in · ctrl-c to quit"))
	}
	b.WriteString("\n")

	return t.Container.Render(b.String())
}
