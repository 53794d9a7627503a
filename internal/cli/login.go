// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/session"
)

// HandleLogin handles the "login" command: prompt for credentials,
// authenticate, and persist the returned user record.
func HandleLogin(args Args) {
	username, err := readLine("Username: ")
	if err != nil {
		fail(err)
	}
	password, err := readPassword("Password: ")
	if err != nil {
		fail(err)
	}

	client := newClient(args)
	user, err := client.Login(context.Background(), username, password)
	if err != nil {
		if api.IsConnectivity(err) {
			fail(fmt.Errorf("%v (is the server running at %s?)", err, client.BaseURL()))
		}
		fail(err)
	}

	store, err := session.NewStore()
	if err != nil {
		fail(err)
	}
	if err := store.Save(user); err != nil {
		fail(fmt.Errorf("logged in, but saving the session failed: %w", err))
	}

	if !args.Quiet {
		fmt.Printf("Logged in as %s.\n", user.Username)
		if !user.Profile.HasPhoto() {
			fmt.Println("Tip: upload a photo with 'stylist profile upload FILE' to enable chat.")
		}
	}
}

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) {
	store, err := session.NewStore()
	if err != nil {
		fail(err)
	}
	_, loadErr := store.Load()
	if err := store.Clear(); err != nil {
		fail(err)
	}
	if !args.Quiet {
		if errors.Is(loadErr, session.ErrNotLoggedIn) {
			fmt.Println("Not logged in.")
		} else {
			fmt.Println("Logged out.")
		}
	}
}
