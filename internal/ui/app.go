// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the Bubble Tea TUI: a login page, a profile page,
// and the chat page, routed by a single app model.
package ui

import (
	"errors"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/session"
	"github.com/wardrobeai/stylist-tui/internal/storage"
	"github.com/wardrobeai/stylist-tui/internal/stylist"
	"github.com/wardrobeai/stylist-tui/internal/ui/chat"
	"github.com/wardrobeai/stylist-tui/internal/ui/login"
	"github.com/wardrobeai/stylist-tui/internal/ui/profile"
	"github.com/wardrobeai/stylist-tui/internal/ui/styles"
)

// Page identifies the active page.
type Page int

const (
	PageLogin Page = iota
	PageProfile
	PageChat
)

// ConfigReloadedMsg announces a configuration freshly reloaded from disk.
// The app re-reads voice and UI settings from it.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// Deps bundles what the app needs from the caller.
type Deps struct {
	Client  *api.Client
	Store   *session.Store
	History *storage.HistoryStore // may be nil
	Config  *config.Config
	Logger  *log.Logger
}

// App is the root model: it owns the theme, the current page, and routing.
type App struct {
	deps  Deps
	theme *styles.Theme
	user  *api.User

	page    Page
	login   login.Model
	profile profile.Model
	chat    *chat.Model

	width, height int
}

// NewApp creates the app model. With a persisted session the app opens
// straight on chat (or profile, when the photo gate applies); otherwise it
// opens on login.
func NewApp(deps Deps) *App {
	theme := styles.NewTheme()
	a := &App{
		deps:  deps,
		theme: theme,
		page:  PageLogin,
		login: login.New(deps.Client, theme),
	}

	user, err := deps.Store.Load()
	if err != nil {
		if !errors.Is(err, session.ErrNotLoggedIn) {
			deps.Logger.Printf("session load failed: %v", err)
		}
		return a
	}
	a.setUser(user)
	if user.Profile.HasPhoto() {
		a.page = PageChat
	} else {
		a.page = PageProfile
		a.profile = a.profile.WithNotice(photoGateNotice)
	}
	return a
}

const photoGateNotice = "Upload at least one photo so the stylist can see you - then press esc to start chatting."

// setUser wires the logged-in user into the per-user pages.
func (a *App) setUser(user *api.User) {
	a.user = user
	a.profile = profile.New(a.deps.Client, user, a.theme)

	var opts []stylist.Option
	if a.deps.History != nil {
		opts = append(opts, stylist.WithHistory(a.deps.History))
	}
	opts = append(opts, stylist.WithLogger(a.deps.Logger))
	ctrl := stylist.NewController(a.deps.Client, user, opts...)
	a.chat = chat.New(ctrl, a.deps.Config, a.theme)
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	switch a.page {
	case PageChat:
		return a.chat.Init()
	case PageProfile:
		return a.profile.Init()
	default:
		return a.login.Init()
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		// Every page gets the size; only the active one renders.
		var cmds []tea.Cmd
		a.login, _ = a.login.Update(msg)
		a.profile, _ = a.profile.Update(msg)
		if a.chat != nil {
			var cmd tea.Cmd
			a.chat, cmd = a.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case ConfigReloadedMsg:
		a.deps.Config = msg.Config
		if a.chat != nil {
			a.chat.ApplyConfig(msg.Config)
		}
		return a, nil

	case login.SuccessMsg:
		if err := a.deps.Store.Save(msg.User); err != nil {
			a.deps.Logger.Printf("session save failed: %v", err)
		}
		a.setUser(msg.User)
		if msg.User.Profile.HasPhoto() {
			a.page = PageChat
			return a, a.chat.Init()
		}
		a.page = PageProfile
		a.profile = a.profile.WithNotice(photoGateNotice)
		return a, a.profile.Init()

	case chat.RedirectProfileMsg:
		a.page = PageProfile
		if msg.Notice != "" {
			a.profile = a.profile.WithNotice(msg.Notice)
		}
		return a, a.profile.Init()

	case profile.ContinueMsg:
		if a.chat == nil || a.user == nil || !a.user.Profile.HasPhoto() {
			return a, nil
		}
		a.page = PageChat
		return a, a.chat.Init()

	case profile.SavedMsg:
		// Keep the session and the chat controller on the fresh record.
		if err := a.deps.Store.Save(msg.User); err != nil {
			a.deps.Logger.Printf("session save failed: %v", err)
		}
		notice := a.profile.Notice()
		a.setUser(msg.User)
		if msg.User.Profile.HasPhoto() {
			notice = ""
		}
		a.profile = a.profile.WithNotice(notice)
		a.page = PageProfile
		return a, a.profile.Init()
	}

	// Page-local messages.
	var cmd tea.Cmd
	switch a.page {
	case PageLogin:
		a.login, cmd = a.login.Update(msg)
	case PageProfile:
		a.profile, cmd = a.profile.Update(msg)
	case PageChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.page {
	case PageProfile:
		return a.profile.View()
	case PageChat:
		return a.chat.View()
	default:
		return a.login.View()
	}
}

// NewProgram builds the TUI program. The caller runs it, and may Send
// messages into it; the config watcher delivers ConfigReloadedMsg that way.
func NewProgram(deps Deps) *tea.Program {
	return tea.NewProgram(NewApp(deps), tea.WithAltScreen())
}

// Run starts the TUI and blocks until it exits.
func Run(p *tea.Program) error {
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI failed: %w", err)
	}
	return nil
}
