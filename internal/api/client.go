// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MaxResponseSize caps response bodies read into memory.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// sharedHTTPClient is the default transport for all backend requests.
// Connection pooling is shared across Client values. No overall timeout is
// set: a send that the server is still thinking about stays in flight until
// the server answers or the caller's context ends.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Client talks to the stylist backend.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *log.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		userAgent:  "stylist-tui/" + Version,
	}
}

// Version is the client version reported in the User-Agent header.
// Overridden at build time alongside the main package version.
var Version = "0.1.0"

// WithHTTPClient sets a custom HTTP client (tests use this sparingly; most
// tests point baseURL at an httptest server instead).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithLogger enables request/response logging. Only the method, path, status
// and duration are logged, never bodies or credentials.
func (c *Client) WithLogger(l *log.Logger) *Client {
	c.logger = l
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL retargets the client at a different backend. Requests already
// in flight finish against the old URL. A config reload uses this so a
// server change applies without a restart.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	c.mu.Unlock()
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do issues one request and decodes a JSON response into out (when out is
// non-nil). Transport failures surface as ErrConnectivity; non-2xx statuses
// surface as *APIError with the parsed message field, falling back to the
// HTTP status text.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logf("API request: %s %s", method, path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("API request failed: %s %s: %v", method, path, err)
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	c.logf("API response: %s %s: %d (%v)", method, path, resp.StatusCode, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doJSON marshals in as the JSON request body and decodes into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(payload), "application/json", out)
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// decodeError converts a non-success response into an *APIError. The backend
// usually answers with a JSON envelope carrying a message field; when it does
// not, the HTTP status text stands in.
func decodeError(status int, body []byte) error {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := envelope.message(); msg != "" {
			return &APIError{Status: status, Message: msg}
		}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}
