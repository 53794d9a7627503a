// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// SPEECH SYNTHESIS
// =============================================================================

// ErrNoAPIKey is returned when synthesis is attempted without an API key.
var ErrNoAPIKey = errors.New("voice: no synthesis API key configured")

// maxAudioSize caps the synthesized audio we accept (20MB).
const maxAudioSize = 20 * 1024 * 1024

// VoiceSettings tunes the synthesis voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// synthesisRequest is the wire format of a synthesis call.
type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesizer converts text to speech via an ElevenLabs-compatible API.
type Synthesizer struct {
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	settings   VoiceSettings
	httpClient *http.Client
	limiter    *rate.Limiter
}

// SynthOption configures a Synthesizer.
type SynthOption func(*Synthesizer)

// WithSynthHTTPClient overrides the HTTP client, mainly for tests.
func WithSynthHTTPClient(c *http.Client) SynthOption {
	return func(s *Synthesizer) { s.httpClient = c }
}

// WithVoiceSettings overrides the default voice settings.
func WithVoiceSettings(settings VoiceSettings) SynthOption {
	return func(s *Synthesizer) { s.settings = settings }
}

// WithRequestsPerMinute caps outbound synthesis calls. Zero disables the cap.
func WithRequestsPerMinute(n int) SynthOption {
	return func(s *Synthesizer) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewSynthesizer creates a synthesizer for the given endpoint and voice.
func NewSynthesizer(baseURL, apiKey, voiceID, modelID string, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: modelID,
		settings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize converts text to audio bytes (MP3). Calls are rate limited;
// Synthesize blocks until the limiter grants a slot or ctx is cancelled.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("voice: text must not be empty")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:          text,
		ModelID:       s.modelID,
		VoiceSettings: s.settings,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis failed (HTTP %d): %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("voice: empty audio response")
	}
	return audio, nil
}
