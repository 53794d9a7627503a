// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for recommendation history.
//
// Every product recommendation the stylist returns is recorded in a SQLite
// database under ~/.stylist so users can browse and export what was
// suggested to them across sessions, independent of the server.
package storage
