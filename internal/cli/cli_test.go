// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/wardrobeai/stylist-tui/internal/api"
)

func TestParseGlobalFlags(t *testing.T) {
	remaining, args := parseGlobalFlags([]string{"--quiet", "chat", "--server", "http://x"})
	if !args.Quiet {
		t.Error("quiet flag not parsed")
	}
	if args.Server != "http://x" {
		t.Errorf("server = %q", args.Server)
	}
	if len(remaining) != 1 || remaining[0] != "chat" {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestParseSubcommand(t *testing.T) {
	args := Args{Options: make(map[string]string)}
	parseSubcommand(&args, []string{"export", "--output", "hist.md"})
	if args.Subcommand != "export" {
		t.Errorf("subcommand = %q", args.Subcommand)
	}
	if args.Options["output"] != "hist.md" {
		t.Errorf("options = %v", args.Options)
	}

	args = Args{Options: make(map[string]string)}
	parseSubcommand(&args, []string{"set", "top-size", "M"})
	if args.Subcommand != "set" {
		t.Errorf("subcommand = %q", args.Subcommand)
	}
	if len(args.Raw) != 2 || args.Raw[0] != "top-size" || args.Raw[1] != "M" {
		t.Errorf("raw = %v", args.Raw)
	}
}

func TestDisplayName(t *testing.T) {
	named := api.Chat{ThreadID: "t1", SessionName: "Spring looks",
		Messages: []api.Message{{}, {}}}
	if got := displayName(named, 0); got != "1. Spring looks (2 messages)" {
		t.Errorf("displayName = %q", got)
	}

	unnamed := api.Chat{ThreadID: "t9"}
	if got := displayName(unnamed, 2); got != "3. t9 (0 messages)" {
		t.Errorf("displayName = %q", got)
	}
}
