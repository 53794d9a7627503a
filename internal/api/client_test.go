// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// CLIENT CORE
// =============================================================================

func TestNewClient(t *testing.T) {
	c := NewClient("http://example.com/")
	if c.BaseURL() != "http://example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL())
	}
}

func TestSetBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Chat{{ThreadID: "t1"}})
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1")
	c.SetBaseURL(srv.URL + "/")
	if c.BaseURL() != srv.URL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), srv.URL)
	}

	// Requests follow the retarget.
	chats, err := c.GetChats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetChats after retarget: %v", err)
	}
	if len(chats) != 1 || chats[0].ThreadID != "t1" {
		t.Errorf("unexpected chats %+v", chats)
	}
}

func TestConnectivityError(t *testing.T) {
	// Port 1 refuses connections.
	c := NewClient("http://127.0.0.1:1")
	_, err := c.GetChats(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected connectivity error")
	}
	if !IsConnectivity(err) {
		t.Errorf("IsConnectivity = false for %v", err)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail field", 400, `{"detail":"bad input"}`, "bad input"},
		{"message field", 422, `{"message":"missing size"}`, "missing size"},
		{"error field", 500, `{"error":"boom"}`, "boom"},
		{"non-JSON body", 502, `<html>gateway</html>`, http.StatusText(502)},
		{"empty body", 503, ``, http.StatusText(503)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).GetChats(context.Background(), "alice")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestIsPhotoRequired(t *testing.T) {
	err := &APIError{Status: 400, Message: "Please upload at least one photo first"}
	if !IsPhotoRequired(err) {
		t.Error("photo-precondition error not detected")
	}
	if IsPhotoRequired(&APIError{Status: 400, Message: "other failure"}) {
		t.Error("false positive on unrelated error")
	}
	if IsPhotoRequired(nil) {
		t.Error("nil error should not match")
	}
}

func TestArgumentValidation(t *testing.T) {
	// Validation failures must not produce any request.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()
	c := NewClient(server.URL)
	ctx := context.Background()

	if _, err := c.GetChats(ctx, "  "); err == nil {
		t.Error("GetChats with blank user should fail")
	}
	if _, err := c.Login(ctx, "", "pw"); err == nil {
		t.Error("Login with blank username should fail")
	}
	if _, err := c.SendMessage(ctx, "", "alice", "t1"); err == nil {
		t.Error("SendMessage with blank text should fail")
	}
	if err := c.LikeProduct(ctx, "alice", ""); err == nil {
		t.Error("LikeProduct with blank product should fail")
	}
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["username"] != "alice" || req["password"] != "secret" {
			t.Errorf("unexpected credentials: %v", req)
		}
		json.NewEncoder(w).Encode(User{
			ID:       "u1",
			Username: "alice",
			Profile:  Profile{Photos: []string{"a.jpg"}},
		})
	}))
	defer server.Close()

	user, err := NewClient(server.URL).Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u1" || !user.Profile.HasPhoto() {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestUserIdentifier(t *testing.T) {
	withID := &User{ID: "u1", Username: "alice"}
	if withID.Identifier() != "u1" {
		t.Errorf("Identifier = %q, want ID", withID.Identifier())
	}
	// Accounts predating server-side IDs fall back to the username.
	legacy := &User{Username: "bob"}
	if legacy.Identifier() != "bob" {
		t.Errorf("Identifier = %q, want username fallback", legacy.Identifier())
	}
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

func TestGetChats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/u1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"thread_id":"t1","session_name":"Spring","messages":[
				{"role":"user","content":"hi"},
				{"role":"assistant","content":"hello","ranked_products":[{"id":"p1","title":"Coat"}]}
			]}
		]`))
	}))
	defer server.Close()

	chats, err := NewClient(server.URL).GetChats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].ThreadID != "t1" {
		t.Fatalf("chats = %+v", chats)
	}
	msg := chats[0].Messages[1]
	if msg.Products == nil || msg.Products.Source != SourceRanked {
		t.Errorf("assistant products not resolved: %+v", msg.Products)
	}
}

func TestGetChatsNonArrayBody(t *testing.T) {
	// A wrong-shaped success body resolves to an empty list, never an error.
	bodies := []string{
		`{"detail":"unexpected"}`,
		`"a string"`,
		`null`,
		`[{"thread_id": 42}]`, // array but malformed entries
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			chats, err := NewClient(server.URL).GetChats(context.Background(), "u1")
			if err != nil {
				t.Fatalf("GetChats: %v", err)
			}
			if chats == nil || len(chats) != 0 {
				t.Errorf("chats = %#v, want empty non-nil slice", chats)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["message"] != "show me coats" || req["user_id"] != "u1" || req["thread_id"] != "t1" {
			t.Errorf("unexpected request body: %v", req)
		}
		w.Write([]byte(`{
			"response": "Here you go.",
			"styled_products": [{"id":"s1","title":"Styled Coat","source":"acme"}],
			"merged_images": ["https://cdn.example/merge1.png"]
		}`))
	}))
	defer server.Close()

	reply, err := NewClient(server.URL).SendMessage(context.Background(), "show me coats", "u1", "t1")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Text != "Here you go." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Products == nil || reply.Products.Source != SourceStyled {
		t.Fatalf("products = %+v", reply.Products)
	}
	if reply.Products.Items[0].Retailer != "acme" {
		t.Errorf("retailer = %q, want mapped from source field", reply.Products.Items[0].Retailer)
	}
	if len(reply.MergedImages) != 1 {
		t.Errorf("merged images = %v", reply.MergedImages)
	}
}

func TestSendMessageOmitsEmptyThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if _, present := req["thread_id"]; present {
			t.Error("empty thread_id should be omitted")
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).SendMessage(context.Background(), "hi", "u1", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

// =============================================================================
// PRODUCT RESOLUTION
// =============================================================================

func TestResolveProducts(t *testing.T) {
	ranked := []Product{{ID: "r1"}}
	styled := []Product{{ID: "s1"}}
	plain := []Product{{ID: "p1"}}

	tests := []struct {
		name                  string
		ranked, styled, plain []Product
		wantSource            ProductSource
		wantID                string
	}{
		{"ranked wins over styled", ranked, styled, nil, SourceRanked, "r1"},
		{"ranked wins over all", ranked, styled, plain, SourceRanked, "r1"},
		{"styled when no ranked", nil, styled, plain, SourceStyled, "s1"},
		{"plain treated as styled", nil, nil, plain, SourceStyled, "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveProducts(tt.ranked, tt.styled, tt.plain)
			if got == nil {
				t.Fatal("resolveProducts = nil")
			}
			if got.Source != tt.wantSource || got.Items[0].ID != tt.wantID {
				t.Errorf("got source=%s id=%s, want source=%s id=%s",
					got.Source, got.Items[0].ID, tt.wantSource, tt.wantID)
			}
		})
	}

	if resolveProducts(nil, nil, nil) != nil {
		t.Error("no products should resolve to nil")
	}
}

// =============================================================================
// IMAGE HELPERS
// =============================================================================

func TestExtractS3Key(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			"virtual-hosted style",
			"https://photos.s3.us-east-1.amazonaws.com/users/alice/photo%201.jpg",
			"users/alice/photo 1.jpg",
			false,
		},
		{
			"path style strips bucket",
			"https://s3.us-east-1.amazonaws.com/photos/users/alice/a.jpg",
			"users/alice/a.jpg",
			false,
		},
		{
			"plain host keeps full path",
			"https://cdn.example.com/users/alice/a.jpg",
			"users/alice/a.jpg",
			false,
		},
		{"empty path", "https://cdn.example.com/", "", true},
		{"not a url", "://bad", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractS3Key(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("user") != "alice" {
			t.Errorf("user field = %q", r.FormValue("user"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file field: %v", err)
		}
		json.NewEncoder(w).Encode(User{
			ID:      "u1",
			Profile: Profile{Photos: []string{"https://cdn.example/alice/new.jpg"}},
		})
	}))
	defer server.Close()

	user, err := NewClient(server.URL).UploadImage(context.Background(),
		"alice", "new.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !user.Profile.HasPhoto() {
		t.Error("returned user should carry the new photo")
	}
}
