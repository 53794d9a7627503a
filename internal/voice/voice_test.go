// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSynthesizeRequestShape(t *testing.T) {
	var got synthesisRequest
	var gotPath, gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	s := NewSynthesizer(server.URL, "key-1", "voice-1", "eleven_monolingual_v1",
		WithRequestsPerMinute(0),
		WithVoiceSettings(VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75}))

	audio, err := s.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if gotPath != "/v1/text-to-speech/voice-1" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "key-1" {
		t.Errorf("api key header = %q", gotKey)
	}
	if got.Text != "hello there" {
		t.Errorf("text = %q", got.Text)
	}
	if got.ModelID != "eleven_monolingual_v1" {
		t.Errorf("model_id = %q", got.ModelID)
	}
	if got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("voice_settings = %+v", got.VoiceSettings)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	s := NewSynthesizer(server.URL, "key-1", "voice-1", "m1", WithRequestsPerMinute(0))

	if _, err := s.Synthesize(context.Background(), "hi"); err == nil {
		t.Error("expected error for HTTP 404")
	}
	if _, err := s.Synthesize(context.Background(), "  "); err == nil {
		t.Error("expected error for empty text")
	}

	noKey := NewSynthesizer(server.URL, "", "voice-1", "m1", WithRequestsPerMinute(0))
	if _, err := noKey.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestSynthesizeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	// One request per minute: the second call should block until cancelled.
	s := NewSynthesizer(server.URL, "key-1", "v1", "m1", WithRequestsPerMinute(1))
	if _, err := s.Synthesize(context.Background(), "first"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Synthesize(ctx, "second"); err == nil {
		t.Error("second call should hit the rate limit")
	}
}

func TestRecognizerNotConfigured(t *testing.T) {
	r := NewRecognizer(nil)
	if r.Available() {
		t.Error("empty recognizer should not be available")
	}
	if _, err := r.Start(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("Start = %v, want ErrNoRecognizer", err)
	}
}

func TestRecognizerCapture(t *testing.T) {
	// The stub prints interim lines and a final transcript.
	r := NewRecognizer([]string{"sh", "-c", "echo partial; echo 'show me jackets'"})
	events, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var final Event
	for ev := range events {
		if ev.Final {
			final = ev
		}
	}
	if final.Err != nil {
		t.Fatalf("final event error: %v", final.Err)
	}
	if final.Transcript != "show me jackets" {
		t.Errorf("transcript = %q, want last line", final.Transcript)
	}
}

func TestRecognizerNoSpeech(t *testing.T) {
	r := NewRecognizer([]string{"sh", "-c", "true"})
	events, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var final Event
	for ev := range events {
		if ev.Final {
			final = ev
		}
	}
	if !errors.Is(final.Err, ErrNoSpeech) {
		t.Errorf("final error = %v, want ErrNoSpeech", final.Err)
	}
}

func TestPlayerNotAvailable(t *testing.T) {
	p := NewPlayer([]string{"definitely-not-a-real-player-binary"})
	if p.Available() {
		t.Error("player should not be available")
	}
	if err := p.Play(context.Background(), []byte("audio")); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Play = %v, want ErrNoPlayer", err)
	}
}

func TestPlayerRuns(t *testing.T) {
	// "true" ignores its argument and exits 0.
	p := NewPlayer([]string{"true"})
	if !p.Available() {
		t.Skip("true not on PATH")
	}
	if err := p.Play(context.Background(), []byte("audio")); err != nil {
		t.Errorf("Play: %v", err)
	}
}
