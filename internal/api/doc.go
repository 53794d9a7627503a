// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the stylist backend.
//
// The backend owns users, chat sessions, photo storage, and the stylist
// model itself; this package is a thin request/response layer over its REST
// surface. Each method validates its required arguments, issues exactly one
// request, and normalizes error bodies into a single human-readable error.
// There are no retries and no client-side timeouts: a call either resolves
// with parsed JSON or fails with an error the UI can render.
package api
