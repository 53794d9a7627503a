// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/config"
	"github.com/wardrobeai/stylist-tui/internal/session"
)

// newClient builds an API client from config plus any --server override.
func newClient(args Args) *api.Client {
	baseURL := config.Global().Server.BaseURL
	if args.Server != "" {
		baseURL = args.Server
	}
	return api.NewClient(baseURL)
}

// loadUser loads the persisted session, with a friendly message when the
// user is not logged in.
func loadUser() (*api.User, *session.Store, error) {
	store, err := session.NewStore()
	if err != nil {
		return nil, nil, err
	}
	user, err := store.Load()
	if errors.Is(err, session.ErrNotLoggedIn) {
		return nil, nil, errors.New("not logged in - run 'stylist login' first")
	}
	if err != nil {
		return nil, nil, err
	}
	return user, store, nil
}

// displayName formats a chat for listings.
func displayName(chat api.Chat, index int) string {
	name := strings.TrimSpace(chat.SessionName)
	if name == "" {
		name = chat.ThreadID
	}
	return fmt.Sprintf("%d. %s (%d messages)", index+1, name, len(chat.Messages))
}
