// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// =============================================================================
// AUDIO PLAYBACK
// =============================================================================

// ErrNoPlayer is returned when no player command is configured or found.
var ErrNoPlayer = errors.New("voice: no audio player available")

// Player plays audio through an external player command. The audio is
// written to a temp file and the file path appended to the command argv.
type Player struct {
	command []string
}

// NewPlayer creates a player around the given argv.
func NewPlayer(command []string) *Player {
	return &Player{command: command}
}

// Available reports whether the player command is configured and on PATH.
func (p *Player) Available() bool {
	if len(p.command) == 0 {
		return false
	}
	_, err := exec.LookPath(p.command[0])
	return err == nil
}

// Play writes audio to a temp file and blocks until the player exits or
// ctx is cancelled.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	if !p.Available() {
		return ErrNoPlayer
	}

	f, err := os.CreateTemp("", "stylist-tts-*.mp3")
	if err != nil {
		return err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	args := append(append([]string{}, p.command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio player failed: %w", err)
	}
	return nil
}

// Speak synthesizes text and plays it, the common path for reading replies
// aloud.
func Speak(ctx context.Context, s *Synthesizer, p *Player, text string) error {
	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	return p.Play(ctx, audio)
}
