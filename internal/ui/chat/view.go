// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/util"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	t := m.theme

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.showChats {
		b.WriteString(m.chatListView())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(t.InputContainer.Width(m.width - 2).Render(
		t.InputPrompt.Render("you ") + m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusView())

	return b.String()
}

func (m *Model) headerView() string {
	t := m.theme
	title := "stylist"
	if chat := m.ctrl.ActiveChat(); chat != nil {
		name := strings.TrimSpace(chat.SessionName)
		if name == "" {
			name = chat.ThreadID
		}
		title = "stylist · " + util.TruncateWidth(name, 40)
	}
	return t.HeaderTitle.Render(title)
}

func (m *Model) statusView() string {
	t := m.theme
	switch {
	case m.openErr != "":
		return t.ErrorBox.Render(m.openErr)
	case m.listening:
		line := m.spin.View() + t.ThinkingText.Render(" listening...")
		if m.transcript != "" {
			line += "  " + t.InfoText.Render(m.transcript)
		}
		return line
	case m.ctrl.Sending():
		return m.spin.View() + t.ThinkingText.Render(" styling...")
	case m.status != "":
		return t.InfoText.Render(m.status)
	}
	help := []string{"enter send", "ctrl-l chats", "ctrl-n new"}
	if m.recognizer != nil {
		help = append(help, "ctrl-v voice")
	}
	help = append(help, "ctrl-c quit")
	var parts []string
	for _, h := range help {
		key, desc, _ := strings.Cut(h, " ")
		parts = append(parts, t.ShortcutKey.Render(key)+" "+t.ShortcutDesc.Render(desc))
	}
	return t.StatusBar.Width(m.width).Render(strings.Join(parts, " · "))
}

// chatListView renders the chat switcher in place of the viewport.
func (m *Model) chatListView() string {
	t := m.theme
	chats := m.ctrl.Chats()

	var b strings.Builder
	b.WriteString(t.HeaderSubtitle.Render("Your chats (press a number to switch, ctrl-l to close)"))
	b.WriteString("\n\n")
	if len(chats) == 0 {
		b.WriteString(t.FormHint.Render("  no chats yet - just start typing"))
	}
	active := m.ctrl.ActiveThread()
	for i, chat := range chats {
		name := strings.TrimSpace(chat.SessionName)
		if name == "" {
			name = chat.ThreadID
		}
		line := fmt.Sprintf("%d. %s (%d messages)", i+1,
			util.TruncateWidth(name, 48), len(chat.Messages))
		if chat.ThreadID == active {
			b.WriteString(t.ChatItemSelected.Render(line))
		} else {
			b.WriteString(t.ChatItem.Render(line))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Height(m.viewport.Height).Render(b.String())
}

// refreshViewport re-renders the conversation into the viewport and scrolls
// to the latest turn.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	msgs := m.ctrl.Messages()
	if len(msgs) == 0 {
		b.WriteString(m.theme.FormHint.Render("No messages yet. Ask for outfit ideas, or describe an occasion."))
	}
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderMessage renders one turn: a bubble, then any product cards and
// try-on images.
func (m *Model) renderMessage(msg api.Message) string {
	t := m.theme
	bubbleWidth := m.width - 10
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var b strings.Builder
	switch msg.Role {
	case api.RoleUser:
		b.WriteString(t.UserBubble.MaxWidth(bubbleWidth).Render(msg.Content))
	default:
		body := msg.Content
		if m.renderer != nil {
			if out, err := m.renderer.Render(body); err == nil {
				body = strings.TrimSpace(out)
			}
		}
		b.WriteString(t.AssistantBubble.MaxWidth(bubbleWidth).Render(body))
	}
	b.WriteString("\n")

	if msg.Products != nil {
		for i, p := range msg.Products.Items {
			b.WriteString(m.renderProduct(i+1, p))
			b.WriteString("\n")
		}
	}
	for _, img := range msg.MergedImages {
		b.WriteString(t.ProductMeta.Render("  try-on: ") + t.LinkStyle.Render(img))
		b.WriteString("\n")
	}
	return b.String()
}

// renderProduct renders one product card.
func (m *Model) renderProduct(n int, p api.Product) string {
	t := m.theme

	title := util.TruncateWidth(p.Title, 60)
	head := fmt.Sprintf("%d. %s", n, t.ProductTitle.Render(title))

	var meta []string
	if p.Price != "" {
		meta = append(meta, t.ProductPrice.Render(p.Price))
	}
	if p.Rating > 0 {
		meta = append(meta, t.LikedMark.Render(fmt.Sprintf("★ %.1f", p.Rating)))
	}
	if p.Retailer != "" {
		meta = append(meta, t.ProductMeta.Render(p.Retailer))
	}

	lines := []string{head}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, "  "))
	}
	if p.Link != "" {
		lines = append(lines, t.LinkStyle.Render(util.TruncateWidth(p.Link, 70)))
	}
	if p.ID != "" {
		lines = append(lines, t.ProductMeta.Render("/like "+p.ID))
	}
	return t.ProductCard.Render(strings.Join(lines, "\n"))
}
