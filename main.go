// stylist - a terminal client for the Wardrobe AI shopping stylist.
//
// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/cli"
	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/session"
	"github.com/wardrobeai/stylist-tui/internal/storage"
	"github.com/wardrobeai/stylist-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with the cli and api packages
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	api.Version = Version
}

func main() {
	cmd, args := cli.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
	}
	config.SetGlobal(cfg)

	switch cmd {
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdLogout:
		cli.HandleLogout(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdProfile:
		cli.HandleProfile(args)
	case cli.CmdLikes:
		cli.HandleLikes(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args, cfg)
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args, cfg *config.Config) {
	logger := newLogger(args.Verbose)

	store, err := session.NewStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	history, err := storage.OpenHistory()
	if err != nil {
		logger.Printf("recommendation history unavailable: %v", err)
		history = nil
	} else {
		defer history.Close()
	}

	client := api.NewClient(cfg.Server.BaseURL).WithLogger(logger)

	p := ui.NewProgram(ui.Deps{
		Client:  client,
		Store:   store,
		History: history,
		Config:  cfg,
		Logger:  logger,
	})

	// Voice and server settings follow config file edits without a restart:
	// each reload retargets the client and is pushed into the running program.
	// A --server flag pins the base URL for the whole session.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := config.Watch(ctx, func(next *config.Config) {
			if args.Server == "" {
				client.SetBaseURL(next.Server.BaseURL)
			}
			p.Send(ui.ConfigReloadedMsg{Config: next})
		})
		if err != nil && ctx.Err() == nil {
			logger.Printf("config watcher stopped: %v", err)
		}
	}()

	if err := ui.Run(p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to ~/.stylist/stylist.log; the TUI owns the terminal, so
// nothing may log to stdout. Falls back to discard if the file is
// unavailable.
func newLogger(verbose bool) *log.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return log.New(io.Discard, "", 0)
	}
	f, err := os.OpenFile(filepath.Join(dir, "stylist.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return log.New(io.Discard, "", 0)
	}
	flags := log.LstdFlags
	if verbose {
		flags |= log.Lshortfile
	}
	return log.New(f, "", flags)
}
