// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// USER TYPES
// =============================================================================

// User is the authenticated user record as returned by the backend.
// The session store persists it verbatim; every mutating call (profile save,
// photo upload, photo delete) returns a fresh copy that replaces the old one.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Profile  Profile `json:"profile"`
}

// Identifier returns the value used as the user identifier in chat calls.
// Older accounts predate server-side IDs and are keyed by username.
func (u *User) Identifier() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Username
}

// Profile holds the styling attributes the recommendation model works from.
type Profile struct {
	Gender     string   `json:"gender,omitempty"`
	AgeGroup   string   `json:"age_group,omitempty"`
	Region     string   `json:"region,omitempty"`
	TopSize    string   `json:"top_size,omitempty"`
	BottomSize string   `json:"bottom_size,omitempty"`
	ShoeSize   string   `json:"shoe_size,omitempty"`

	// Photos holds the stored photo URLs for this user.
	Photos []string `json:"photos,omitempty"`

	// LikedItems holds the product identifiers the user has liked.
	LikedItems []string `json:"liked_items,omitempty"`
}

// HasPhoto reports whether at least one photo reference exists.
// Chat is gated on this: the stylist cannot dress a user it has never seen.
func (p *Profile) HasPhoto() bool {
	for _, ref := range p.Photos {
		if ref != "" {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the editable profile fields for UpdateProfile.
// Fields are sent as multipart form values; empty fields are sent as empty
// values so the server can clear them.
type ProfileUpdate struct {
	Gender     string
	AgeGroup   string
	Region     string
	TopSize    string
	BottomSize string
	ShoeSize   string
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is one stylist conversation. The backend returns every chat with its
// full message history, so switching chats client-side needs no extra fetch.
type Chat struct {
	ThreadID    string    `json:"thread_id"`
	SessionName string    `json:"session_name"`
	Messages    []Message `json:"messages"`
}

// Message is a single turn in a chat. Once appended to a chat's sequence a
// message is never mutated in place; the whole sequence is replaced when the
// controller reconciles against the server.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Products is the recommendation payload attached to assistant turns,
	// already resolved to a single tagged list (see UnmarshalJSON).
	Products *ProductList `json:"products,omitempty"`

	// MergedImages holds try-on preview image URLs, when present.
	MergedImages []string `json:"merged_images,omitempty"`

	// Progress marks transient status events ("searching catalogs...").
	// Progress messages are display-only and never persisted by the server.
	Progress string `json:"progress,omitempty"`
}

// NewUserMessage creates a user-role message with a fresh client-side ID.
func NewUserMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message with a fresh
// client-side ID. products and mergedImages may be nil.
func NewAssistantMessage(content string, products *ProductList, mergedImages []string) Message {
	return Message{
		ID:           uuid.NewString(),
		Role:         RoleAssistant,
		Content:      content,
		Products:     products,
		MergedImages: mergedImages,
	}
}

// wireMessage mirrors the server's message shape, which still emits the
// legacy ranked_products/styled_products pair instead of a tagged list.
type wireMessage struct {
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Products       []Product `json:"products"`
	RankedProducts []Product `json:"ranked_products"`
	StyledProducts []Product `json:"styled_products"`
	MergedImages   []string  `json:"merged_images"`
	Progress       string    `json:"progress"`
}

// UnmarshalJSON resolves the polymorphic product fields once, at the client
// boundary: ranked_products wins over styled_products, which wins over the
// plain products field. Consumers only ever see the tagged ProductList.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.ID = w.ID
	m.Role = w.Role
	m.Content = w.Content
	m.MergedImages = w.MergedImages
	m.Progress = w.Progress
	m.Products = resolveProducts(w.RankedProducts, w.StyledProducts, w.Products)
	return nil
}

// =============================================================================
// PRODUCT TYPES
// =============================================================================

// ProductSource tags which pipeline produced a product list.
type ProductSource string

const (
	// SourceRanked marks results from the ranked recommendation pipeline.
	SourceRanked ProductSource = "ranked"

	// SourceStyled marks results from the legacy styled-outfit pipeline.
	SourceStyled ProductSource = "styled"
)

// ProductList is a tagged recommendation payload. Modeling the two server
// shapes as one tagged value means the ranked-vs-styled decision is made
// exactly once instead of at every consumer.
type ProductList struct {
	Source ProductSource `json:"source"`
	Items  []Product     `json:"items"`
}

// Product is one recommended item. It mirrors the backend's catalog entry at
// the moment of recommendation and is not kept in sync with the catalog.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Price       string  `json:"price"`
	Rating      float64 `json:"rating"`
	Retailer    string  `json:"source"`
	Link        string  `json:"link"`
	MergedImage string  `json:"merged_image,omitempty"`
}

// resolveProducts collapses the server's product field variants into one
// tagged list. Ranked results take priority when both are present.
func resolveProducts(ranked, styled, plain []Product) *ProductList {
	switch {
	case len(ranked) > 0:
		return &ProductList{Source: SourceRanked, Items: ranked}
	case len(styled) > 0:
		return &ProductList{Source: SourceStyled, Items: styled}
	case len(plain) > 0:
		// Bare "products" only ever came from the styled pipeline.
		return &ProductList{Source: SourceStyled, Items: plain}
	}
	return nil
}

// Reply is the normalized result of a send-message call.
type Reply struct {
	// Text is the assistant's reply.
	Text string

	// Products is the resolved recommendation payload, if any.
	Products *ProductList

	// MergedImages holds try-on preview URLs, if any.
	MergedImages []string
}
