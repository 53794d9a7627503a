// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package stylist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/storage"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

// fakeBackend is an httptest-backed stylist server with adjustable behavior.
type fakeBackend struct {
	mu sync.Mutex

	// chats is server truth, returned by GET /api/chats/{user}.
	chats []api.Chat

	// chatCalls counts GetChats requests.
	chatCalls int

	// chatStatus, when non-zero, fails GET /api/chats/{user}.
	chatStatus int

	// likes records liked product IDs.
	likes []string

	// sendStatus / sendError configure POST /chat failures. Zero means
	// success with sendReply.
	sendStatus int
	sendError  string
	sendReply  map[string]any

	// sendStarted/sendRelease, when set, make POST /chat block so tests
	// can interleave calls with an in-flight send.
	sendStarted chan struct{}
	sendRelease chan struct{}

	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		sendReply: map[string]any{"response": "Here are some options."},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chats/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.chatCalls++
		chats := b.chats
		status := b.chatStatus
		b.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(chats)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		started, release := b.sendStarted, b.sendRelease
		status, errMsg := b.sendStatus, b.sendError
		reply := b.sendReply
		b.mu.Unlock()

		if started != nil {
			started <- struct{}{}
			<-release
		}
		if status != 0 {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"detail": errMsg})
			return
		}
		json.NewEncoder(w).Encode(reply)
	})
	mux.HandleFunc("/api/createChat/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			SessionName string `json:"session_name"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		chat := api.Chat{ThreadID: "new-thread", SessionName: req.SessionName}
		b.mu.Lock()
		b.chats = append(b.chats, chat)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(chat)
	})
	mux.HandleFunc("/api/like/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.likes = append(b.likes, filepath.Base(r.URL.Path))
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) setChats(chats []api.Chat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats = chats
}

func (b *fakeBackend) getChatCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatCalls
}

func (b *fakeBackend) client() *api.Client {
	return api.NewClient(b.server.URL)
}

func testUser() *api.User {
	return &api.User{
		ID:       "u1",
		Username: "alice",
		Profile:  api.Profile{Photos: []string{"https://cdn.example/alice-1.jpg"}},
	}
}

func twoChats() []api.Chat {
	return []api.Chat{
		{ThreadID: "t1", SessionName: "Spring looks", Messages: []api.Message{
			{Role: api.RoleUser, Content: "hi"},
			{Role: api.RoleAssistant, Content: "hello!"},
		}},
		{ThreadID: "t2", SessionName: "Work wear"},
	}
}

// =============================================================================
// OPEN
// =============================================================================

func TestOpenSelectsFirstChat(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	assert.Equal(t, "t1", c.ActiveThread())
	assert.Len(t, c.Chats(), 2)
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello!", msgs[1].Content)
}

func TestOpenZeroChats(t *testing.T) {
	b := newFakeBackend(t)

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	assert.Empty(t, c.ActiveThread())
	assert.Empty(t, c.Chats())
	assert.Empty(t, c.Messages())
}

func TestOpenPhotoGate(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	user := testUser()
	user.Profile.Photos = nil
	c := NewController(b.client(), user)

	err := c.Open(context.Background())
	assert.ErrorIs(t, err, ErrPhotoRequired)
	// The gate short-circuits before any chat fetch.
	assert.Equal(t, 0, b.getChatCalls())
}

// =============================================================================
// SEND
// =============================================================================

func TestSendAppendsAndReconciles(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))
	require.False(t, c.Sending())

	// The refetch after the reply returns server truth including both new
	// turns; local state must converge to it.
	serverTruth := twoChats()
	serverTruth[0].Messages = append(serverTruth[0].Messages,
		api.Message{ID: "srv-3", Role: api.RoleUser, Content: "show me jackets"},
		api.Message{ID: "srv-4", Role: api.RoleAssistant, Content: "Here are some options."},
	)
	b.setChats(serverTruth)

	res := c.Send(context.Background(), "show me jackets")
	assert.Equal(t, SendOK, res.Status)
	assert.Equal(t, "Here are some options.", res.ReplyText)
	assert.False(t, c.Sending())

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "srv-3", msgs[2].ID, "reconciliation should replace optimistic messages with server truth")
	assert.Equal(t, api.RoleAssistant, msgs[3].Role)
}

func TestSendSkipsEmptyAndInactive(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	assert.Equal(t, SendSkipped, c.Send(context.Background(), "   ").Status)
	assert.Len(t, c.Messages(), 2, "empty input must not append")

	// No active chat: fresh controller that never opened.
	c2 := NewController(b.client(), testUser())
	assert.Equal(t, SendSkipped, c2.Send(context.Background(), "hello").Status)
}

func TestSendRejectsWhileInFlight(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendStarted = make(chan struct{})
	b.sendRelease = make(chan struct{})

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	done := make(chan SendResult, 1)
	go func() { done <- c.Send(context.Background(), "first") }()

	<-b.sendStarted
	assert.True(t, c.Sending())
	assert.Equal(t, SendSkipped, c.Send(context.Background(), "second").Status)

	close(b.sendRelease)
	res := <-done
	assert.Equal(t, SendOK, res.Status)
	assert.False(t, c.Sending())
}

func TestSendRankedWinsOverStyled(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendReply = map[string]any{
		"response":        "Try these.",
		"ranked_products": []map[string]string{{"id": "r1", "title": "Ranked Coat"}},
		"styled_products": []map[string]string{{"id": "s1", "title": "Styled Coat"}},
	}

	hist, err := storage.OpenHistoryAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	c := NewController(b.client(), testUser(), WithHistory(hist))
	require.NoError(t, c.Open(context.Background()))

	res := c.Send(context.Background(), "coats please")
	require.Equal(t, SendOK, res.Status)

	// The ranked list wins when both are present; only it gets recorded.
	recs, err := hist.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ProductID)
	assert.Equal(t, "ranked", recs[0].Source)
}

func TestSendPhotoRequiredError(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendStatus = http.StatusBadRequest
	b.sendError = "Please upload at least one photo to continue"

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	res := c.Send(context.Background(), "style me")
	assert.Equal(t, SendPhotoRequired, res.Status)
	assert.False(t, c.Sending())

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	last := msgs[len(msgs)-1]
	assert.Equal(t, api.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "upload a photo")
	assert.NotContains(t, last.Content, "Error:")
}

func TestSendGenericError(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendStatus = http.StatusInternalServerError
	b.sendError = "model overloaded"

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	res := c.Send(context.Background(), "style me")
	assert.Equal(t, SendFailed, res.Status)
	assert.False(t, c.Sending())

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	last := msgs[len(msgs)-1]
	assert.Equal(t, api.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "Error:")
	assert.Contains(t, last.Content, "model overloaded")
}

func TestSendEmptyReplyAddsNoBubble(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendReply = map[string]any{"response": ""}

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	// Fail the refetch so the local turn list stays observable.
	b.mu.Lock()
	b.chatStatus = http.StatusInternalServerError
	b.mu.Unlock()

	res := c.Send(context.Background(), "anything for tonight?")
	assert.Equal(t, SendOK, res.Status)
	assert.Empty(t, res.ReplyText)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, api.RoleUser, msgs[len(msgs)-1].Role,
		"an empty reply must not append an assistant turn")
}

func TestSendStaleReplyDiscarded(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendStarted = make(chan struct{})
	b.sendRelease = make(chan struct{})

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))
	chatCallsBefore := b.getChatCalls()

	done := make(chan SendResult, 1)
	go func() { done <- c.Send(context.Background(), "for the old chat") }()

	<-b.sendStarted
	require.True(t, c.Switch("t2"))

	close(b.sendRelease)
	res := <-done
	assert.Equal(t, SendStale, res.Status)
	assert.False(t, c.Sending())

	// The discarded reply must not leak into the newly active chat, and the
	// discarded send must not trigger a reconciliation fetch.
	for _, m := range c.Messages() {
		assert.NotEqual(t, "Here are some options.", m.Content)
	}
	assert.Equal(t, chatCallsBefore, b.getChatCalls())
}

// =============================================================================
// SWITCH / NEW CHAT / LIKE
// =============================================================================

func TestSwitch(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	assert.True(t, c.Switch("t2"))
	assert.Equal(t, "t2", c.ActiveThread())
	assert.Empty(t, c.Messages())
	assert.Equal(t, 1, b.getChatCalls(), "Switch must not hit the network")

	assert.False(t, c.Switch("missing"))
	assert.Equal(t, "t2", c.ActiveThread(), "failed switch keeps the active chat")
}

func TestNewChat(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	c := NewController(b.client(), testUser())
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.NewChat(context.Background(), "Date night"))
	assert.Equal(t, "new-thread", c.ActiveThread())
	assert.Len(t, c.Chats(), 3)
	assert.Empty(t, c.Messages())
}

func TestLikeFireAndForget(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())

	hist, err := storage.OpenHistoryAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	c := NewController(b.client(), testUser(), WithHistory(hist))
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, hist.Record(context.Background(), "u1", "t1",
		&api.ProductList{Source: api.SourceRanked, Items: []api.Product{{ID: "p1", Title: "Coat"}}}))

	c.Like(context.Background(), "p1")

	b.mu.Lock()
	likes := append([]string(nil), b.likes...)
	b.mu.Unlock()
	assert.Equal(t, []string{"p1"}, likes)

	liked, err := hist.Liked(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, "p1", liked[0].ProductID)

	// A dead backend never surfaces an error.
	b.server.Close()
	c.Like(context.Background(), "p2")
}

func TestSendRecordsRecommendations(t *testing.T) {
	b := newFakeBackend(t)
	b.setChats(twoChats())
	b.sendReply = map[string]any{
		"response":        "Here you go.",
		"ranked_products": []map[string]string{{"id": "p9", "title": "Wool Coat", "price": "$210"}},
	}

	hist, err := storage.OpenHistoryAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	c := NewController(b.client(), testUser(), WithHistory(hist))
	require.NoError(t, c.Open(context.Background()))

	res := c.Send(context.Background(), "winter coats")
	require.Equal(t, SendOK, res.Status)

	var recs []storage.Recommendation
	require.Eventually(t, func() bool {
		recs, err = hist.Recent(context.Background(), "u1", 10)
		return err == nil && len(recs) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "p9", recs[0].ProductID)
	assert.Equal(t, "ranked", recs[0].Source)
}
