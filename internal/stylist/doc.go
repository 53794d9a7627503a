// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stylist implements the chat session protocol shared by the TUI
// and the plain CLI.
//
// The Controller owns the chat list, the active chat, and the working
// message list. Sends are single-flight: a user message is appended
// optimistically, the backend is called, the assistant reply is appended,
// and local state is then reconciled against the server's chat list. All
// send failures are rendered as assistant turns; the send protocol never
// returns an error to its caller.
package stylist
