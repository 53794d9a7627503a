// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat page: the conversation viewport, the
// input line, product cards, and the voice capture flow.
package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/stylist"
	"github.com/wardrobeai/stylist-tui/internal/ui/styles"
	"github.com/wardrobeai/stylist-tui/internal/voice"
)

// RedirectProfileMsg asks the app to switch to the profile page, with a
// notice explaining why.
type RedirectProfileMsg struct {
	Notice string
}

// Model is the chat page.
type Model struct {
	ctrl  *stylist.Controller
	cfg   *config.Config
	theme *styles.Theme

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// Voice pipeline, nil when voice is disabled.
	recognizer  *voice.Recognizer
	synth       *voice.Synthesizer
	player      *voice.Player
	voiceEvents <-chan voice.Event
	listening   bool
	transcript  string

	opened    bool
	openErr   string
	status    string
	showChats bool

	width, height int
	ready         bool
}

// New creates the chat page model around an already-constructed controller.
func New(ctrl *stylist.Controller, cfg *config.Config, theme *styles.Theme) *Model {
	input := textinput.New()
	input.Placeholder = "Ask your stylist anything... (/help for commands)"
	input.CharLimit = 2000
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner

	m := &Model{
		ctrl:  ctrl,
		theme: theme,
		input: input,
		spin:  s,
	}

	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)); err == nil {
		m.renderer = r
	}

	m.ApplyConfig(cfg)
	return m
}

// ApplyConfig swaps in a freshly loaded configuration and rebuilds the voice
// pipeline from it. A capture in progress was started under the old settings
// and is stopped.
func (m *Model) ApplyConfig(cfg *config.Config) {
	m.cfg = cfg

	if m.listening && m.recognizer != nil {
		m.recognizer.Stop()
	}
	m.recognizer, m.synth, m.player = nil, nil, nil
	if cfg.Voice.Enabled {
		m.recognizer = voice.NewRecognizer(cfg.Voice.RecognizerCommand)
		m.synth = voice.NewSynthesizer(cfg.Voice.TTSBaseURL, cfg.Voice.APIKey,
			cfg.Voice.VoiceID, cfg.Voice.ModelID,
			voice.WithVoiceSettings(voice.VoiceSettings{
				Stability:       cfg.Voice.Stability,
				SimilarityBoost: cfg.Voice.SimilarityBoost,
			}),
			voice.WithRequestsPerMinute(cfg.Voice.RequestsPerMinute))
		m.player = voice.NewPlayer(cfg.Voice.PlayerCommand)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if !m.opened {
		cmds = append(cmds, m.openCmd(), m.spin.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshViewport()
		return m, nil

	case openedMsg:
		m.opened = true
		if msg.err != nil {
			if msg.redirect {
				return m, func() tea.Msg {
					return RedirectProfileMsg{Notice: "Upload at least one photo so the stylist can see you."}
				}
			}
			m.openErr = msg.err.Error()
			return m, nil
		}
		m.openErr = ""
		m.refreshViewport()
		return m, nil

	case sendDoneMsg:
		m.refreshViewport()
		switch msg.res.Status {
		case stylist.SendPhotoRequired:
			return m, func() tea.Msg {
				return RedirectProfileMsg{Notice: "The stylist needs a photo before chatting - upload one here."}
			}
		case stylist.SendOK:
			if msg.spoken && m.cfg.UI.SpeakReplies && m.synth != nil {
				return m, m.speakCmd(msg.res.ReplyText)
			}
		}
		return m, nil

	case chatCreatedMsg:
		if msg.err != nil {
			m.status = "Could not create chat: " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.refreshViewport()
		return m, nil

	case voiceEventMsg:
		return m.handleVoiceEvent(msg)

	case spokenMsg:
		if msg.err != nil {
			m.status = "speech unavailable: " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		// Sends append the optimistic user turn from the command goroutine;
		// picking it up on the tick keeps the viewport current mid-flight.
		if m.ctrl.Sending() {
			m.refreshViewport()
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) busy() bool {
	return !m.opened || m.ctrl.Sending() || m.listening
}

// handleKey processes key input.
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		if strings.HasPrefix(text, "/") {
			return m.handleSlash(text)
		}
		return m.startSend(text, false)

	case tea.KeyCtrlN:
		return m, tea.Batch(m.newChatCmd("New chat"), m.spin.Tick)

	case tea.KeyCtrlL:
		m.showChats = !m.showChats
		return m, nil

	case tea.KeyCtrlV:
		return m.startVoice()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Number keys switch chats while the list is open.
	if m.showChats && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		n, _ := strconv.Atoi(string(msg.Runes))
		chats := m.ctrl.Chats()
		if n >= 1 && n <= len(chats) {
			m.ctrl.Switch(chats[n-1].ThreadID)
			m.showChats = false
			m.refreshViewport()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSlash processes /commands typed into the input line.
func (m *Model) handleSlash(text string) (*Model, tea.Cmd) {
	fields := strings.Fields(text)
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.status = "/chats · /switch N · /new [name] · /like ID · /voice · ctrl-c quits"
	case "/chats":
		m.showChats = true
	case "/switch":
		if len(rest) == 0 {
			m.status = "usage: /switch N"
			break
		}
		n, err := strconv.Atoi(rest[0])
		chats := m.ctrl.Chats()
		if err != nil || n < 1 || n > len(chats) {
			m.status = "no such chat - /chats lists them"
			break
		}
		m.ctrl.Switch(chats[n-1].ThreadID)
		m.showChats = false
		m.refreshViewport()
	case "/new":
		name := strings.Join(rest, " ")
		if name == "" {
			name = "New chat"
		}
		return m, tea.Batch(m.newChatCmd(name), m.spin.Tick)
	case "/like":
		if len(rest) == 0 {
			m.status = "usage: /like PRODUCT_ID"
			break
		}
		return m, m.likeCmd(rest[0])
	case "/voice":
		return m.startVoice()
	default:
		m.status = "unknown command " + cmd
	}
	return m, nil
}

// startSend kicks off one send round. A send already in flight is rejected
// up front so the input is not lost silently.
func (m *Model) startSend(text string, spoken bool) (*Model, tea.Cmd) {
	if m.ctrl.Sending() {
		m.status = "still thinking - one message at a time"
		m.input.SetValue(text)
		return m, nil
	}

	// No chats yet: create one implicitly, then send.
	if m.ctrl.ActiveThread() == "" {
		return m, tea.Batch(m.newChatThenSendCmd("New chat", text, spoken), m.spin.Tick)
	}

	m.status = ""
	cmd := m.sendCmd(text, spoken)
	// Render the optimistic user turn on the next frame.
	return m, tea.Batch(cmd, m.spin.Tick)
}

// startVoice begins a capture and subscribes to its events.
func (m *Model) startVoice() (*Model, tea.Cmd) {
	if m.recognizer == nil || !m.recognizer.Available() {
		m.status = "voice input is not configured ([voice] in ~/.stylist/config.toml)"
		return m, nil
	}
	if m.listening {
		m.recognizer.Stop()
		return m, nil
	}

	events, err := m.recognizer.Start(contextBackground())
	if err != nil {
		m.status = "could not start voice capture: " + err.Error()
		return m, nil
	}
	m.listening = true
	m.transcript = ""
	m.voiceEvents = events
	return m, tea.Batch(m.nextVoiceEventCmd(), m.spin.Tick)
}

// handleVoiceEvent consumes one recognizer event and re-subscribes until the
// final one arrives.
func (m *Model) handleVoiceEvent(msg voiceEventMsg) (*Model, tea.Cmd) {
	if !msg.ok {
		m.listening = false
		m.voiceEvents = nil
		return m, nil
	}

	ev := msg.event
	if !ev.Final {
		m.transcript = ev.Transcript
		return m, m.nextVoiceEventCmd()
	}

	m.listening = false
	m.transcript = ""
	m.voiceEvents = nil
	if ev.Err != nil {
		if errors.Is(ev.Err, voice.ErrNoSpeech) {
			m.status = "no speech detected"
		} else {
			m.status = "voice capture failed: " + ev.Err.Error()
		}
		return m, nil
	}
	return m.startSend(ev.Transcript, true)
}

// layout recomputes component sizes after a resize.
func (m *Model) layout() {
	headerHeight := 2
	footerHeight := 4
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 8

	wrap := m.width - 12
	if wrap < 20 {
		wrap = 20
	} else if wrap > 100 {
		wrap = 100
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap)); err == nil {
		m.renderer = r
	}
}
