// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// =============================================================================
// SPEECH RECOGNITION
// =============================================================================

// ErrNoRecognizer is returned when no recognizer command is configured.
var ErrNoRecognizer = errors.New("voice: no recognizer command configured")

// ErrNoSpeech is returned when a capture finishes without a transcript.
var ErrNoSpeech = errors.New("voice: no speech recognized")

// Event is one update from an in-progress capture.
type Event struct {
	// Transcript is the text recognized so far.
	Transcript string

	// Final marks the last event of the capture.
	Final bool

	// Err is set when the capture failed. Final is true alongside it.
	Err error
}

// Recognizer captures speech by running an external speech-to-text command
// and streaming its stdout. Each line the command prints is an interim
// transcript; the last line before exit is the final one.
type Recognizer struct {
	command []string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRecognizer creates a recognizer around the given argv.
func NewRecognizer(command []string) *Recognizer {
	return &Recognizer{command: command}
}

// Available reports whether a recognizer command is configured and on PATH.
func (r *Recognizer) Available() bool {
	if len(r.command) == 0 {
		return false
	}
	_, err := exec.LookPath(r.command[0])
	return err == nil
}

// Start begins a capture and returns a channel of events. The channel is
// closed after the final event. Only one capture runs at a time; starting a
// new one stops the previous capture.
func (r *Recognizer) Start(ctx context.Context) (<-chan Event, error) {
	if len(r.command) == 0 {
		return nil, ErrNoRecognizer
	}

	r.Stop()

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start recognizer: %w", err)
	}

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		defer cancel()

		var last string
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			last = line
			select {
			case events <- Event{Transcript: line}:
			case <-ctx.Done():
			}
		}

		err := cmd.Wait()
		switch {
		case ctx.Err() != nil && last == "":
			events <- Event{Final: true, Err: ctx.Err()}
		case err != nil && last == "":
			events <- Event{Final: true, Err: fmt.Errorf("recognizer failed: %w", err)}
		case last == "":
			events <- Event{Final: true, Err: ErrNoSpeech}
		default:
			events <- Event{Transcript: last, Final: true}
		}
	}()
	return events, nil
}

// Stop cancels the current capture, if any. The capture's final event still
// carries whatever transcript was heard before the stop.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
