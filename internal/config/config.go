// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// stylist client.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.stylist/config.toml.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Version string `toml:"version"`

	// Server configures the stylist backend.
	Server ServerConfig `toml:"server"`

	// Voice configures speech capture and playback.
	Voice VoiceConfig `toml:"voice"`

	// UI configures the terminal interface.
	UI UIConfig `toml:"ui"`
}

// ServerConfig holds backend connection settings.
type ServerConfig struct {
	// BaseURL is the stylist backend base URL.
	BaseURL string `toml:"base_url"`
}

// VoiceConfig holds speech-to-text and text-to-speech settings.
type VoiceConfig struct {
	// Enabled turns the voice features on.
	Enabled bool `toml:"enabled"`

	// TTSBaseURL is the voice-synthesis endpoint base URL.
	TTSBaseURL string `toml:"tts_base_url"`

	// APIKey authenticates against the synthesis endpoint.
	APIKey string `toml:"api_key"`

	// VoiceID selects the synthesis voice. Empty means the default voice.
	VoiceID string `toml:"voice_id"`

	// ModelID selects the synthesis model.
	ModelID string `toml:"model_id"`

	// Stability and SimilarityBoost are passed through as voice settings.
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`

	// RequestsPerMinute caps synthesis calls to the third-party endpoint.
	RequestsPerMinute int `toml:"requests_per_minute"`

	// PlayerCommand is the audio player argv; the audio file path is
	// appended as the final argument.
	PlayerCommand []string `toml:"player_command"`

	// RecognizerCommand is the speech-to-text argv. The command is expected
	// to record from the microphone and print transcript lines to stdout,
	// the last line being the final transcript.
	RecognizerCommand []string `toml:"recognizer_command"`
}

// UIConfig holds terminal interface settings.
type UIConfig struct {
	// Theme selects "dark", "light", or "auto".
	Theme string `toml:"theme"`

	// SpeakReplies reads assistant replies aloud after voice input.
	SpeakReplies bool `toml:"speak_replies"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultVoiceID is the synthesis voice used when none is configured.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
		},
		Voice: VoiceConfig{
			Enabled:           false,
			TTSBaseURL:        "https://api.elevenlabs.io",
			VoiceID:           DefaultVoiceID,
			ModelID:           "eleven_monolingual_v1",
			Stability:         0.5,
			SimilarityBoost:   0.75,
			RequestsPerMinute: 20,
			PlayerCommand:     []string{"mpv", "--really-quiet"},
		},
		UI: UIConfig{
			Theme:        "auto",
			SpeakReplies: true,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// ConfigDir returns the configuration directory (~/.stylist), creating it if
// needed.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".stylist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath returns the config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, applies environment overrides, and validates.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to its default location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnvOverrides layers STYLIST_* environment variables over the file
// values. Environment wins so deployments can override without editing files.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STYLIST_SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("STYLIST_TTS_URL"); v != "" {
		cfg.Voice.TTSBaseURL = v
	}
	if v := os.Getenv("STYLIST_TTS_KEY"); v != "" {
		cfg.Voice.APIKey = v
	}
	if v := os.Getenv("STYLIST_VOICE_ID"); v != "" {
		cfg.Voice.VoiceID = v
	}
	if v := os.Getenv("STYLIST_VOICE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Voice.Enabled = b
		}
	}
}

// Validate checks the configuration for values that would fail at first use.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return errors.New("server.base_url must not be empty")
	}
	if _, err := url.Parse(c.Server.BaseURL); err != nil {
		return fmt.Errorf("server.base_url is not a valid URL: %w", err)
	}
	if c.Voice.Enabled {
		if c.Voice.TTSBaseURL == "" {
			return errors.New("voice.tts_base_url must not be empty when voice is enabled")
		}
		if c.Voice.Stability < 0 || c.Voice.Stability > 1 {
			return errors.New("voice.stability must be between 0 and 1")
		}
		if c.Voice.SimilarityBoost < 0 || c.Voice.SimilarityBoost > 1 {
			return errors.New("voice.similarity_boost must be between 0 and 1")
		}
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme %q is not one of auto, dark, light", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide configuration, loading it on first use.
// Load failures fall back to defaults; the caller that cares about the error
// should use Load directly.
func Global() *Config {
	globalMu.RLock()
	cfg := globalCfg
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load()
	if err != nil {
		loaded = Default()
	}
	SetGlobal(loaded)
	return loaded
}

// SetGlobal replaces the process-wide configuration. Used by the config
// watcher on reload and by tests.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}
