// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the stylist client.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: display-width-aware truncation (CJK safe)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long product titles safely for display
//	display := util.TruncateWidth(title, 40)
//
//	// Write the session file atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
