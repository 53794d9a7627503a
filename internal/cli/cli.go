// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and command dispatch for stylist.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdChat
	CmdProfile
	CmdLikes
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Server  string // override server.base_url

	// Command-specific
	Subcommand string
	Query      string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format)
	Options map[string]string
}

const usageText = `stylist - conversational AI shopping stylist

Stylist is a terminal client for the Wardrobe AI stylist. Log in, keep your
profile and photos current, and chat with the stylist to get ranked outfit
and product recommendations.

Usage:
  stylist                    Start TUI (default)
  stylist login              Log in and save the session
  stylist logout             Clear the saved session
  stylist chat               Plain line-based chat (no TUI)
  stylist profile [cmd]      Show or edit your profile
  stylist likes [cmd]        Browse recommendation history and likes
  stylist version, -v        Show version
  stylist help, -h           Show this help

Profile Commands:
  stylist profile                   Show the current profile
  stylist profile set FIELD VALUE   Set a field (gender, age-group, region,
                                    top-size, bottom-size, shoe-size)
  stylist profile photos            List photo references
  stylist profile upload FILE       Upload a photo
  stylist profile delete N          Delete photo number N

Likes Commands:
  stylist likes                     List liked products
  stylist likes history             List recent recommendations
  stylist likes export              Export history as Markdown
    --output FILE                   Write to file (default: stdout)

Chat Commands (inside "stylist chat"):
  /chats                            List your chat sessions
  /switch N                         Switch to chat number N
  /new [name]                       Start a new chat
  /like ID                          Like a product by ID
  /voice                            Speak instead of typing (if configured)
  /quit                             Exit

Global Flags:
  --server URL               Override the stylist server URL
  --quiet, -q                Less output
  --verbose                  More output

Environment:
  STYLIST_SERVER_URL         Server URL (same as --server)
  STYLIST_TTS_KEY            Voice synthesis API key

Config: ~/.stylist/config.toml
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("stylist %s (%s, built %s, %s)\n", Version, GitCommit, BuildDate, runtime.Version())
}

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)

	// No remaining args: default to the TUI.
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "login":
		return CmdLogin, parsed

	case "logout":
		return CmdLogout, parsed

	case "chat":
		return CmdChat, parsed

	case "profile":
		parseSubcommand(&parsed, remaining)
		return CmdProfile, parsed

	case "likes":
		parseSubcommand(&parsed, remaining)
		return CmdLikes, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		PrintUsage()
		os.Exit(2)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags, returning the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	parsed := Args{Options: make(map[string]string)}
	var remaining []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--quiet", "-q":
			parsed.Quiet = true
		case "--verbose":
			parsed.Verbose = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsed.Server = args[i]
			}
		default:
			remaining = append(remaining, args[i])
		}
	}
	return remaining, parsed
}

// parseSubcommand splits "<sub> [args...]" plus trailing --key value options.
func parseSubcommand(parsed *Args, remaining []string) {
	var positional []string
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		if strings.HasPrefix(arg, "--") && i+1 < len(remaining) {
			parsed.Options[strings.TrimPrefix(arg, "--")] = remaining[i+1]
			i++
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) > 0 {
		parsed.Subcommand = positional[0]
		parsed.Raw = positional[1:]
	} else {
		parsed.Raw = nil
	}
}

// fail prints an error and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
