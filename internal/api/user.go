// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Login authenticates a user and returns the full user record, which the
// caller is expected to persist as the client-side source of truth.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	if err := requireArg("username", username); err != nil {
		return nil, err
	}
	if err := requireArg("password", password); err != nil {
		return nil, err
	}

	body := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile saves the editable profile fields and returns the updated
// user record. The backend takes this as multipart form fields.
func (c *Client) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*User, error) {
	if err := requireArg("username", username); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"gender":      update.Gender,
		"age_group":   update.AgeGroup,
		"region":      update.Region,
		"top_size":    update.TopSize,
		"bottom_size": update.BottomSize,
		"shoe_size":   update.ShoeSize,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	var user User
	path := "/api/update/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodPut, path, &buf, w.FormDataContentType(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LikeProduct records a like for a recommended product. Callers treat this as
// fire-and-forget: a failure is worth a log line, not a rendered error.
func (c *Client) LikeProduct(ctx context.Context, username, productID string) error {
	if err := requireArg("username", username); err != nil {
		return err
	}
	if err := requireArg("product id", productID); err != nil {
		return err
	}
	path := "/api/like/" + url.PathEscape(username) + "/" + url.PathEscape(productID)
	return c.do(ctx, http.MethodPost, path, nil, "", nil)
}
