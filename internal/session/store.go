// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the logged-in user record between runs.
//
// The store holds a single JSON file under the config directory. It is the
// client-side source of truth for the user: every backend call that returns
// an updated user (profile save, photo upload, photo delete) is followed by a
// Save, and logout is a Clear. Writes are last-write-wins; the client runs
// single-process so no locking is needed.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/util"
)

// ErrNotLoggedIn is returned by Load when no user record is persisted.
// Callers treat it as "not authenticated" and send the user to login.
var ErrNotLoggedIn = errors.New("not logged in")

// fileName is the session file name inside the base directory.
const fileName = "session.json"

// Store reads and writes the persisted user record.
type Store struct {
	path string
}

// NewStore creates a store rooted at ~/.stylist.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(home, ".stylist")), nil
}

// NewStoreWithDir creates a store rooted at a custom directory.
func NewStoreWithDir(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the persisted user record. Absence of the file is
// ErrNotLoggedIn; a corrupted file is a real error so the caller can tell
// "never logged in" from "session damaged".
func (s *Store) Load() (*api.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var user api.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if user.Identifier() == "" {
		return nil, ErrNotLoggedIn
	}
	return &user, nil
}

// Save persists the full user record, replacing any previous one. The write
// is atomic: on crash either the old record or the complete new one exists.
func (s *Store) Save(user *api.User) error {
	if user == nil {
		return errors.New("cannot save a nil user")
	}
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return util.AtomicWriteFile(s.path, data, 0600)
}

// Clear removes the persisted record (logout). Clearing an absent record is
// not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
