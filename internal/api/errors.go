// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConnectivity indicates the request never completed: the server could not
// be reached at all. Distinct from a server-reported error so the UI can word
// the two differently.
var ErrConnectivity = errors.New("cannot reach the stylist server")

// photoRequiredFragment is the substring the backend embeds in its error
// message when the photo precondition is violated. The detection is by
// substring because the backend does not return a machine-readable code for
// this case.
const photoRequiredFragment = "upload at least one photo"

// APIError is a server-reported error: the request completed but the backend
// answered with a non-success status.
type APIError struct {
	Status  int    // HTTP status code
	Message string // parsed message field, or the HTTP status text
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

// IsPhotoRequired reports whether err is the backend's photo-precondition
// rejection.
func IsPhotoRequired(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), photoRequiredFragment)
}

// requireArg returns a descriptive validation error when a required string
// argument is empty after trimming. Validation failures never reach the
// network.
func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// errorBody covers the error envelope variants the backend emits.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// message returns the first populated message field, or "".
func (b *errorBody) message() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}
