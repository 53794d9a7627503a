// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides speech input and output for the stylist client.
//
// Input runs an external speech-to-text command and reads transcripts from
// its stdout. Output synthesizes speech through an ElevenLabs-compatible
// endpoint and plays the audio with an external player command. Both sides
// degrade cleanly: voice is optional and every failure surfaces as a normal
// error, never a crash.
package voice
