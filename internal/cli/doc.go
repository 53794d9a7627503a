// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line surface of the stylist client:
// argument parsing and the non-TUI command handlers, including a plain
// line-based chat mode for terminals where the full TUI is unwanted.
package cli
