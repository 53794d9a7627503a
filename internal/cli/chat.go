// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - plain line-based chat mode, for terminals where the TUI is
// unwanted (screen readers, scripts, minimal shells).
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/storage"
	"github.com/wardrobeai/stylist-tui/internal/stylist"
	"github.com/wardrobeai/stylist-tui/internal/voice"
)

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	productStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Supports history
// navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *ChatCLI) saveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// chatSession bundles everything the REPL loop needs.
type chatSession struct {
	ctrl       *stylist.Controller
	input      *ChatCLI
	renderer   *glamour.TermRenderer
	recognizer *voice.Recognizer
	synth      *voice.Synthesizer
	player     *voice.Player
	speak      bool
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	if err := runChat(args); err != nil {
		fail(err)
	}
}

func runChat(args Args) error {
	user, _, err := loadUser()
	if err != nil {
		return err
	}

	client := newClient(args)

	var opts []stylist.Option
	hist, err := storage.OpenHistory()
	if err == nil {
		defer hist.Close()
		opts = append(opts, stylist.WithHistory(hist))
	} else if args.Verbose {
		fmt.Fprintf(os.Stderr, "recommendation history unavailable: %v\n", err)
	}

	ctrl := stylist.NewController(client, user, opts...)
	ctx := context.Background()

	if err := ctrl.Open(ctx); err != nil {
		if errors.Is(err, stylist.ErrPhotoRequired) {
			return errors.New("chat needs at least one profile photo - run 'stylist profile upload FILE' first")
		}
		return err
	}

	s := &chatSession{ctrl: ctrl, input: NewChatCLI()}
	defer s.input.Close()

	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
		s.renderer = r
	}

	cfg := config.Global()
	if cfg.Voice.Enabled {
		s.recognizer = voice.NewRecognizer(cfg.Voice.RecognizerCommand)
		s.synth = voice.NewSynthesizer(cfg.Voice.TTSBaseURL, cfg.Voice.APIKey,
			cfg.Voice.VoiceID, cfg.Voice.ModelID,
			voice.WithVoiceSettings(voice.VoiceSettings{
				Stability:       cfg.Voice.Stability,
				SimilarityBoost: cfg.Voice.SimilarityBoost,
			}),
			voice.WithRequestsPerMinute(cfg.Voice.RequestsPerMinute))
		s.player = voice.NewPlayer(cfg.Voice.PlayerCommand)
		s.speak = cfg.UI.SpeakReplies
	}

	if !args.Quiet {
		fmt.Printf("Chatting as %s. Type /help for commands, /quit to exit.\n", user.Username)
		if chat := ctrl.ActiveChat(); chat != nil {
			fmt.Printf("Active chat: %s\n", chatTitle(*chat))
		} else {
			fmt.Println("No chats yet - just start typing, or /new to name one.")
		}
	}

	// Main REPL loop.
	for {
		input, err := s.input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println("(ctrl-c) /quit to exit")
				continue
			}
			// EOF ends the session.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if quit := s.handleCommand(ctx, input); quit {
				return nil
			}
			continue
		}

		s.send(ctx, input, false)
	}
}

// handleCommand dispatches a slash command. Returns true to exit the REPL.
func (s *chatSession) handleCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		fmt.Println("Commands: /chats, /switch N, /new [name], /like ID, /voice, /quit")

	case "/chats":
		chats := s.ctrl.Chats()
		if len(chats) == 0 {
			fmt.Println("No chats yet.")
			return false
		}
		active := s.ctrl.ActiveThread()
		for i, chat := range chats {
			marker := "  "
			if chat.ThreadID == active {
				marker = "* "
			}
			fmt.Println(marker + displayName(chat, i))
		}

	case "/switch":
		if len(rest) == 0 {
			fmt.Println("Usage: /switch N")
			return false
		}
		chats := s.ctrl.Chats()
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 || n > len(chats) {
			fmt.Printf("Pick a chat between 1 and %d (see /chats).\n", len(chats))
			return false
		}
		s.ctrl.Switch(chats[n-1].ThreadID)
		fmt.Printf("Switched to %s.\n", chatTitle(chats[n-1]))

	case "/new":
		name := strings.Join(rest, " ")
		if name == "" {
			name = "New chat"
		}
		if err := s.ctrl.NewChat(ctx, name); err != nil {
			fmt.Printf("Could not create chat: %v\n", err)
			return false
		}
		fmt.Printf("Started %q.\n", name)

	case "/like":
		if len(rest) == 0 {
			fmt.Println("Usage: /like PRODUCT_ID")
			return false
		}
		s.ctrl.Like(ctx, rest[0])
		fmt.Println("Liked.")

	case "/voice":
		s.captureVoice(ctx)

	default:
		fmt.Printf("Unknown command %s. Try /help.\n", cmd)
	}
	return false
}

// send runs one send round and renders the outcome. spoken marks input that
// came from voice capture; replies to spoken input are read aloud when
// configured.
func (s *chatSession) send(ctx context.Context, text string, spoken bool) {
	res := s.ctrl.Send(ctx, text)

	switch res.Status {
	case stylist.SendSkipped:
		if s.ctrl.ActiveThread() == "" {
			// First message with no chats: create one implicitly.
			if err := s.ctrl.NewChat(ctx, "New chat"); err != nil {
				fmt.Printf("Could not create chat: %v\n", err)
				return
			}
			res = s.ctrl.Send(ctx, text)
		}
		if res.Status == stylist.SendSkipped {
			return
		}
	}

	// Whatever happened, the latest assistant turn tells the story.
	msgs := s.ctrl.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != api.RoleAssistant {
		return
	}
	s.renderAssistant(last)

	if res.Status == stylist.SendPhotoRequired {
		fmt.Println(faintStyle.Render("(update your photos with 'stylist profile upload FILE')"))
	}

	if res.Status == stylist.SendOK && spoken && s.speak && s.synth != nil && s.player != nil {
		if err := voice.Speak(ctx, s.synth, s.player, res.ReplyText); err != nil {
			fmt.Println(faintStyle.Render(fmt.Sprintf("(speech unavailable: %v)", err)))
		}
	}
}

// renderAssistant prints an assistant turn: Markdown body, then products.
func (s *chatSession) renderAssistant(msg api.Message) {
	body := msg.Content
	if s.renderer != nil {
		if out, err := s.renderer.Render(body); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	fmt.Printf("stylist> %s\n", body)

	if msg.Products != nil {
		for i, p := range msg.Products.Items {
			line := fmt.Sprintf("  [%d] %s", i+1, p.Title)
			if p.Price != "" {
				line += " - " + p.Price
			}
			if p.Retailer != "" {
				line += " (" + p.Retailer + ")"
			}
			fmt.Println(productStyle.Render(line))
			if p.Link != "" {
				fmt.Println(faintStyle.Render("      " + p.Link))
			}
			if p.ID != "" {
				fmt.Println(faintStyle.Render("      id: " + p.ID))
			}
		}
	}
	for _, img := range msg.MergedImages {
		fmt.Println(faintStyle.Render("  try-on: " + img))
	}
}

// captureVoice records one utterance and sends the final transcript.
func (s *chatSession) captureVoice(ctx context.Context) {
	if s.recognizer == nil || !s.recognizer.Available() {
		fmt.Println("Voice input is not configured (set [voice] in ~/.stylist/config.toml).")
		return
	}

	fmt.Println("Listening... (speak now)")
	events, err := s.recognizer.Start(ctx)
	if err != nil {
		fmt.Printf("Could not start voice capture: %v\n", err)
		return
	}

	var final voice.Event
	for ev := range events {
		if ev.Final {
			final = ev
			continue
		}
		fmt.Println(faintStyle.Render("  ... " + ev.Transcript))
	}

	if final.Err != nil {
		if errors.Is(final.Err, voice.ErrNoSpeech) {
			fmt.Println("No speech detected.")
		} else {
			fmt.Printf("Voice capture failed: %v\n", final.Err)
		}
		return
	}

	fmt.Printf("you (voice)> %s\n", final.Transcript)
	s.send(ctx, final.Transcript, true)
}

func chatTitle(chat api.Chat) string {
	if name := strings.TrimSpace(chat.SessionName); name != "" {
		return name
	}
	return chat.ThreadID
}
