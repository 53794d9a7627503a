// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wardrobeai/stylist-tui/internal/stylist"
	"github.com/wardrobeai/stylist-tui/internal/voice"
)

// Messages produced by the page's commands.

type openedMsg struct {
	err      error
	redirect bool
}

type sendDoneMsg struct {
	res    stylist.SendResult
	spoken bool
}

type chatCreatedMsg struct {
	err error
}

type voiceEventMsg struct {
	event voice.Event
	ok    bool
}

type spokenMsg struct {
	err error
}

// contextBackground exists so command closures read uniformly; the TUI has
// no per-operation cancellation, matching the API client's no-timeout
// contract.
func contextBackground() context.Context {
	return context.Background()
}

// openCmd runs the session open protocol.
func (m *Model) openCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Open(contextBackground())
		return openedMsg{err: err, redirect: errors.Is(err, stylist.ErrPhotoRequired)}
	}
}

// sendCmd runs one send round off the UI goroutine.
func (m *Model) sendCmd(text string, spoken bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		res := ctrl.Send(contextBackground(), text)
		return sendDoneMsg{res: res, spoken: spoken}
	}
}

// newChatCmd creates and selects a new chat.
func (m *Model) newChatCmd(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return chatCreatedMsg{err: ctrl.NewChat(contextBackground(), name)}
	}
}

// newChatThenSendCmd creates a first chat and immediately sends into it,
// the path taken when the user types before any chat exists.
func (m *Model) newChatThenSendCmd(name, text string, spoken bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.NewChat(contextBackground(), name); err != nil {
			return chatCreatedMsg{err: err}
		}
		res := ctrl.Send(contextBackground(), text)
		return sendDoneMsg{res: res, spoken: spoken}
	}
}

// likeCmd records a like; fire-and-forget, so it produces no status change.
func (m *Model) likeCmd(productID string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Like(contextBackground(), productID)
		return nil
	}
}

// nextVoiceEventCmd reads one event from the active capture.
func (m *Model) nextVoiceEventCmd() tea.Cmd {
	events := m.voiceEvents
	return func() tea.Msg {
		ev, ok := <-events
		return voiceEventMsg{event: ev, ok: ok}
	}
}

// speakCmd reads the reply aloud.
func (m *Model) speakCmd(text string) tea.Cmd {
	synth, player := m.synth, m.player
	return func() tea.Msg {
		return spokenMsg{err: voice.Speak(contextBackground(), synth, player, text)}
	}
}
