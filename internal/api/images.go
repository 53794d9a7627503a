// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// urlResponse is the envelope for the upload-url and image-url endpoints.
type urlResponse struct {
	URL string `json:"url"`
}

// UploadURL returns the presigned upload URL for the user's photo bucket.
func (c *Client) UploadURL(ctx context.Context, username string) (string, error) {
	if err := requireArg("username", username); err != nil {
		return "", err
	}
	var out urlResponse
	if err := c.do(ctx, http.MethodGet, "/api/upload-url/"+url.PathEscape(username), nil, "", &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// ImageURL returns the presigned read URL for the user's current photo.
func (c *Client) ImageURL(ctx context.Context, username string) (string, error) {
	if err := requireArg("username", username); err != nil {
		return "", err
	}
	var out urlResponse
	if err := c.do(ctx, http.MethodGet, "/api/image-url/"+url.PathEscape(username), nil, "", &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// UploadImage uploads one profile photo through the backend's proxy endpoint
// and returns the updated user record (its Profile.Photos now includes the
// new reference).
func (c *Client) UploadImage(ctx context.Context, username, filename string, r io.Reader) (*User, error) {
	if err := requireArg("username", username); err != nil {
		return nil, err
	}
	if err := requireArg("filename", filename); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("user", username); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	var user User
	if err := c.do(ctx, http.MethodPost, "/api/upload", &buf, w.FormDataContentType(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteImage removes a stored photo by its S3 object key and returns the
// updated user record.
func (c *Client) DeleteImage(ctx context.Context, username, s3Key string) (*User, error) {
	if err := requireArg("username", username); err != nil {
		return nil, err
	}
	if err := requireArg("s3 key", s3Key); err != nil {
		return nil, err
	}
	var user User
	path := "/api/image/" + url.PathEscape(username) + "/" + url.PathEscape(s3Key)
	if err := c.do(ctx, http.MethodDelete, path, nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExtractS3Key recovers the S3 object key from a stored photo URL so it can
// be passed to DeleteImage. Works for both virtual-hosted
// (bucket.s3.region.amazonaws.com/key) and path-style
// (s3.region.amazonaws.com/bucket/key) URLs; for anything else the URL path
// minus its leading slash is taken as the key.
func ExtractS3Key(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid photo URL: %w", err)
	}

	key := strings.TrimPrefix(u.Path, "/")

	// Path-style S3 URLs carry the bucket as the first path segment.
	host := strings.ToLower(u.Hostname())
	if strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-") {
		if _, rest, ok := strings.Cut(key, "/"); ok {
			key = rest
		}
	}

	key, err = url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("invalid photo URL: %w", err)
	}
	if key == "" {
		return "", errors.New("photo URL has no object key")
	}
	return key, nil
}
