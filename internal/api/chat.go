// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// GetChats fetches every chat session for a user, each with its full message
// history. A success body that is not a JSON array is a protocol violation;
// it is resolved here to an empty list so a wrong-shaped value never reaches
// a consumer.
func (c *Client) GetChats(ctx context.Context, userID string) ([]Chat, error) {
	if err := requireArg("user id", userID); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(userID), nil, "", &raw); err != nil {
		return nil, err
	}

	if !isJSONArray(raw) {
		c.logf("GetChats: non-array response for user %s, substituting empty list", userID)
		return []Chat{}, nil
	}

	var chats []Chat
	if err := json.Unmarshal(raw, &chats); err != nil {
		c.logf("GetChats: malformed chat list for user %s, substituting empty list: %v", userID, err)
		return []Chat{}, nil
	}
	if chats == nil {
		chats = []Chat{}
	}
	return chats, nil
}

// CreateChat creates a new named chat session for a user.
func (c *Client) CreateChat(ctx context.Context, userID, sessionName string) (*Chat, error) {
	if err := requireArg("user id", userID); err != nil {
		return nil, err
	}
	if err := requireArg("session name", sessionName); err != nil {
		return nil, err
	}

	body := struct {
		UserID      string `json:"user_id"`
		SessionName string `json:"session_name"`
	}{UserID: userID, SessionName: sessionName}

	var chat Chat
	if err := c.doJSON(ctx, http.MethodPost, "/api/createChat/", body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// sendMessageRequest is the body for the send-message endpoint.
type sendMessageRequest struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id,omitempty"`
}

// sendMessageResponse mirrors the server's polymorphic reply shape.
type sendMessageResponse struct {
	Response       string    `json:"response"`
	RankedProducts []Product `json:"ranked_products"`
	StyledProducts []Product `json:"styled_products"`
	MergedImages   []string  `json:"merged_images"`
}

// SendMessage sends one user message to the stylist and returns the
// normalized reply. The ranked/styled product pair is resolved to a single
// tagged list here, with ranked taking priority.
func (c *Client) SendMessage(ctx context.Context, text, userID, threadID string) (*Reply, error) {
	if err := requireArg("message", text); err != nil {
		return nil, err
	}
	if err := requireArg("user id", userID); err != nil {
		return nil, err
	}

	req := sendMessageRequest{
		Message:  strings.TrimSpace(text),
		UserID:   userID,
		ThreadID: threadID,
	}

	var resp sendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}

	return &Reply{
		Text:         resp.Response,
		Products:     resolveProducts(resp.RankedProducts, resp.StyledProducts, nil),
		MergedImages: resp.MergedImages,
	}, nil
}

// isJSONArray reports whether raw starts with a JSON array once leading
// whitespace is skipped.
func isJSONArray(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
