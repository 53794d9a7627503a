// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile implements the profile page: styling attributes and the
// photo references the chat precondition depends on.
package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/ui/styles"
	"github.com/wardrobeai/stylist-tui/internal/util"
)

// SavedMsg is emitted when the server returned an updated user record
// (profile save, photo upload, or photo delete).
type SavedMsg struct {
	User *api.User
}

// ContinueMsg asks the app to switch to the chat page.
type ContinueMsg struct{}

// resultMsg carries a mutating call's outcome back into Update.
type resultMsg struct {
	user *api.User
	note string
	err  error
}

const (
	fieldGender = iota
	fieldAgeGroup
	fieldRegion
	fieldTopSize
	fieldBottomSize
	fieldShoeSize
	fieldPhotoPath
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Gender", "Age group", "Region", "Top size", "Bottom size", "Shoe size",
	"Photo file",
}

// Model is the profile page.
type Model struct {
	client *api.Client
	user   *api.User
	theme  *styles.Theme

	inputs [fieldCount]textinput.Model
	focus  int
	busy   bool
	notice string
	status string
	isErr  bool
	spin   spinner.Model

	width int
}

// New creates the profile page model pre-filled from the user record.
func New(client *api.Client, user *api.User, theme *styles.Theme) Model {
	var inputs [fieldCount]textinput.Model
	values := [fieldCount]string{
		user.Profile.Gender, user.Profile.AgeGroup, user.Profile.Region,
		user.Profile.TopSize, user.Profile.BottomSize, user.Profile.ShoeSize,
		"",
	}
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 128
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[fieldPhotoPath].Placeholder = "~/photos/me.jpg"
	inputs[0].Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner

	return Model{
		client: client,
		user:   user,
		theme:  theme,
		inputs: inputs,
		spin:   s,
	}
}

// WithNotice sets the banner shown at the top of the page.
func (m Model) WithNotice(notice string) Model {
	m.notice = notice
	return m
}

// Notice returns the current banner text.
func (m Model) Notice() string {
	return m.notice
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
			m.status = msg.err.Error()
			m.isErr = true
			return m, nil
		}
		m.status = msg.note
		m.isErr = false
		user := msg.user
		return m, func() tea.Msg { return SavedMsg{User: user} }

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
		case tea.KeyEsc:
			return m, func() tea.Msg { return ContinueMsg{} }

		case tea.KeyTab, tea.KeyDown:
			return m.cycleFocus(1), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.cycleFocus(-1), nil

		case tea.KeyEnter:
			if m.focus == fieldPhotoPath {
				return m.upload()
			}
			return m.cycleFocus(1), nil

		case tea.KeyCtrlS:
			return m.save()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) cycleFocus(dir int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + dir + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

// save sends the attribute fields to the server.
func (m Model) save() (Model, tea.Cmd) {
	update := api.ProfileUpdate{
		Gender:     strings.TrimSpace(m.inputs[fieldGender].Value()),
		AgeGroup:   strings.TrimSpace(m.inputs[fieldAgeGroup].Value()),
		Region:     strings.TrimSpace(m.inputs[fieldRegion].Value()),
		TopSize:    strings.TrimSpace(m.inputs[fieldTopSize].Value()),
		BottomSize: strings.TrimSpace(m.inputs[fieldBottomSize].Value()),
		ShoeSize:   strings.TrimSpace(m.inputs[fieldShoeSize].Value()),
	}

	m.busy = true
	m.status = ""
	client, userID := m.client, m.user.Identifier()
	return m, tea.Batch(
		m.spin.Tick,
		func() tea.Msg {
			user, err := client.UpdateProfile(context.Background(), userID, update)
			return resultMsg{user: user, note: "Profile saved.", err: err}
		},
	)
}

// upload sends the photo named in the photo field.
func (m Model) upload() (Model, tea.Cmd) {
	path := strings.TrimSpace(m.inputs[fieldPhotoPath].Value())
	if path == "" {
		m.status = "Enter a photo file path first."
		m.isErr = true
		return m, nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	m.busy = true
	m.status = ""
	m.inputs[fieldPhotoPath].SetValue("")
	client, userID := m.client, m.user.Identifier()
	return m, tea.Batch(
		m.spin.Tick,
		func() tea.Msg {
			f, err := os.Open(path)
			if err != nil {
				return resultMsg{err: err}
			}
			defer f.Close()
			user, err := client.UploadImage(context.Background(), userID, filepath.Base(path), f)
			return resultMsg{user: user, note: "Photo uploaded.", err: err}
		},
	)
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	var b strings.Builder
	b.WriteString(t.HeaderTitle.Render("Profile"))
	b.WriteString("  ")
	b.WriteString(t.HeaderSubtitle.Render(m.user.Username))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(t.InfoText.Render(m.notice))
		b.WriteString("\n\n")
	}

	for i, input := range m.inputs {
		label := fieldLabels[i]
		if i == m.focus {
			b.WriteString(t.FormFieldFocused.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			t.FormLabel.Render(label), input.View()))
		b.WriteString("\n")
		if i == fieldShoeSize {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(t.FormLabel.Render("Photos"))
	b.WriteString("\n")
	if len(m.user.Profile.Photos) == 0 {
		b.WriteString(t.FormHint.Render("  none yet - chat unlocks after the first upload"))
		b.WriteString("\n")
	}
	for i, url := range m.user.Profile.Photos {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, util.TruncateWidth(url, max(20, m.width-8))))
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spin.View() + t.ThinkingText.Render(" saving..."))
	case m.status != "" && m.isErr:
		b.WriteString(t.ErrorBox.Render(m.status))
	case m.status != "":
		b.WriteString(t.SuccessText.Render(m.status))
	default:
		b.WriteString(t.FormHint.Render("ctrl-s save · enter on photo field uploads · esc to chat"))
	}
	b.WriteString("\n")

	return t.Container.Render(b.String())
}
