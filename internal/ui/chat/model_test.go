// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/stylist"
	"github.com/wardrobeai/stylist-tui/internal/ui/styles"
)

func testModel(t *testing.T, cfg *config.Config) *Model {
	t.Helper()
	ctrl := stylist.NewController(api.NewClient("http://localhost:0"), &api.User{ID: "u1"})
	return New(ctrl, cfg, styles.NewTheme())
}

func TestNewWithoutVoice(t *testing.T) {
	m := testModel(t, config.Default())
	if m.recognizer != nil || m.synth != nil || m.player != nil {
		t.Error("voice pipeline should stay nil while voice is disabled")
	}
}

func TestApplyConfigRebuildsVoicePipeline(t *testing.T) {
	m := testModel(t, config.Default())

	next := config.Default()
	next.Voice.Enabled = true
	next.Voice.APIKey = "k-1"
	m.ApplyConfig(next)

	if m.cfg != next {
		t.Error("ApplyConfig should swap the cached config")
	}
	if m.recognizer == nil || m.synth == nil || m.player == nil {
		t.Error("enabling voice should build the pipeline")
	}

	m.ApplyConfig(config.Default())
	if m.recognizer != nil || m.synth != nil || m.player != nil {
		t.Error("disabling voice should drop the pipeline")
	}
}
