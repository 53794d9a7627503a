// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package stylist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/storage"
)

// =============================================================================
// ERRORS AND RESULTS
// =============================================================================

// ErrPhotoRequired is returned by Open when the user has no profile photo.
// Chat is gated on at least one photo; the caller should redirect to the
// profile page.
var ErrPhotoRequired = errors.New("stylist: at least one profile photo is required")

// photoRequiredNotice is the assistant turn rendered when the backend
// rejects a send for a missing photo.
const photoRequiredNotice = "I need at least one photo of you before I can style outfits. " +
	"Please upload a photo on your profile page, then come back and ask me again."

// SendStatus describes the outcome of one Send call.
type SendStatus int

const (
	// SendSkipped means the send was a no-op: empty input, another send in
	// flight, or no active chat.
	SendSkipped SendStatus = iota

	// SendOK means the assistant replied and local state was reconciled.
	SendOK

	// SendFailed means the backend returned an error; an explanatory
	// assistant turn was appended.
	SendFailed

	// SendPhotoRequired means the backend rejected the send because the
	// user has no photo. The caller should redirect to the profile page.
	SendPhotoRequired

	// SendStale means the reply arrived after the user switched chats and
	// was discarded.
	SendStale
)

// SendResult is the outcome of one Send call.
type SendResult struct {
	Status SendStatus

	// ReplyText is the assistant's reply text on SendOK, for speech output.
	ReplyText string

	// Err carries the underlying failure on SendFailed and
	// SendPhotoRequired, for logging. It is already rendered into the
	// message list; callers never need to surface it.
	Err error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives a chat session for one logged-in user.
//
// All methods are safe for concurrent use. The accessor methods return
// copies, so callers can render them without holding any lock.
type Controller struct {
	client  *api.Client
	user    *api.User
	history *storage.HistoryStore
	logger  *log.Logger

	mu           sync.Mutex
	chats        []api.Chat
	activeThread string
	messages     []api.Message
	sending      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory records recommendations to the given store. Optional.
func WithHistory(h *storage.HistoryStore) Option {
	return func(c *Controller) { c.history = h }
}

// WithLogger sets the logger for background failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller for the given user. The user is passed
// explicitly; the controller never reads session state on its own.
func NewController(client *api.Client, user *api.User, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		user:   user,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User returns the logged-in user.
func (c *Controller) User() *api.User {
	return c.user
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Open prepares the session: it enforces the photo precondition, fetches the
// user's chats, and selects the first one. With zero chats the session opens
// in an empty state. A missing photo returns ErrPhotoRequired before any
// network call.
func (c *Controller) Open(ctx context.Context) error {
	if c.user == nil {
		return errors.New("stylist: no user")
	}
	if !c.user.Profile.HasPhoto() {
		return ErrPhotoRequired
	}

	chats, err := c.client.GetChats(ctx, c.user.Identifier())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = chats
	if len(chats) > 0 {
		c.activeThread = chats[0].ThreadID
		c.messages = append([]api.Message(nil), chats[0].Messages...)
	} else {
		c.activeThread = ""
		c.messages = nil
	}
	return nil
}

// Switch selects a chat from the already-fetched list. It performs no
// network calls and reports whether the thread was found.
func (c *Controller) Switch(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, chat := range c.chats {
		if chat.ThreadID == threadID {
			c.activeThread = chat.ThreadID
			c.messages = append([]api.Message(nil), chat.Messages...)
			return true
		}
	}
	return false
}

// NewChat creates a chat on the server, refetches the chat list, and
// selects the new chat.
func (c *Controller) NewChat(ctx context.Context, name string) error {
	chat, err := c.client.CreateChat(ctx, c.user.Identifier(), name)
	if err != nil {
		return err
	}

	chats, err := c.client.GetChats(ctx, c.user.Identifier())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = chats
	c.activeThread = chat.ThreadID
	c.messages = nil
	for _, cc := range chats {
		if cc.ThreadID == chat.ThreadID {
			c.messages = append([]api.Message(nil), cc.Messages...)
			break
		}
	}
	return nil
}

// =============================================================================
// SEND PROTOCOL
// =============================================================================

// Send runs one round of the send protocol. Empty input, a send already in
// flight, or no active chat makes it a silent no-op. Failures are rendered
// into the message list and reported in the result; Send never returns an
// error.
func (c *Controller) Send(ctx context.Context, text string) SendResult {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.sending || c.user == nil || c.activeThread == "" {
		c.mu.Unlock()
		return SendResult{Status: SendSkipped}
	}
	c.sending = true
	target := c.activeThread
	c.messages = append(c.messages, api.NewUserMessage(text))
	c.mu.Unlock()

	reply, err := c.client.SendMessage(ctx, text, c.user.Identifier(), target)

	c.mu.Lock()
	if c.activeThread != target {
		// The user switched chats mid-flight. Applying the reply now would
		// attach it to the wrong conversation, so drop it.
		c.sending = false
		c.mu.Unlock()
		return SendResult{Status: SendStale}
	}

	if err != nil {
		c.sending = false
		if api.IsPhotoRequired(err) {
			c.messages = append(c.messages, api.NewAssistantMessage(photoRequiredNotice, nil, nil))
			c.mu.Unlock()
			return SendResult{Status: SendPhotoRequired, Err: err}
		}
		c.messages = append(c.messages,
			api.NewAssistantMessage(fmt.Sprintf("Error: %s", err.Error()), nil, nil))
		c.mu.Unlock()
		return SendResult{Status: SendFailed, Err: err}
	}

	// An empty reply gets no bubble; the refetch below still picks up
	// whatever the server stored for the turn.
	if reply.Text != "" {
		c.messages = append(c.messages,
			api.NewAssistantMessage(reply.Text, reply.Products, reply.MergedImages))
	}
	c.mu.Unlock()

	if c.history != nil && reply.Products != nil {
		if err := c.history.Record(ctx, c.user.Identifier(), target, reply.Products); err != nil {
			c.logger.Printf("failed to record recommendations: %v", err)
		}
	}

	c.reconcile(ctx, target)

	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
	return SendResult{Status: SendOK, ReplyText: reply.Text}
}

// reconcile refetches the chat list and replaces local state with server
// truth. The server's copy of the active chat wins over the optimistic
// local messages. Fetch failures keep the optimistic state; the next send
// reconciles again.
func (c *Controller) reconcile(ctx context.Context, target string) {
	chats, err := c.client.GetChats(ctx, c.user.Identifier())
	if err != nil {
		c.logger.Printf("chat refetch failed, keeping local state: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeThread != target {
		return
	}
	c.chats = chats
	for _, chat := range chats {
		if chat.ThreadID == target {
			c.messages = append([]api.Message(nil), chat.Messages...)
			return
		}
	}
}

// =============================================================================
// LIKES
// =============================================================================

// Like records a liked product. It is fire-and-forget: backend and local
// failures are logged, never surfaced, so a flaky like can't interrupt the
// conversation.
func (c *Controller) Like(ctx context.Context, productID string) {
	if err := c.client.LikeProduct(ctx, c.user.Identifier(), productID); err != nil {
		c.logger.Printf("like failed for product %s: %v", productID, err)
	}
	if c.history != nil {
		if err := c.history.MarkLiked(ctx, c.user.Identifier(), productID); err != nil &&
			!errors.Is(err, storage.ErrNotFound) {
			c.logger.Printf("failed to mark product %s liked locally: %v", productID, err)
		}
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Chats returns a copy of the chat list.
func (c *Controller) Chats() []api.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Chat(nil), c.chats...)
}

// Messages returns a copy of the working message list for the active chat.
func (c *Controller) Messages() []api.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Message(nil), c.messages...)
}

// ActiveThread returns the active chat's thread ID, or "" with no chats.
func (c *Controller) ActiveThread() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeThread
}

// ActiveChat returns the active chat, or nil with no chats.
func (c *Controller) ActiveChat() *api.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.chats {
		if c.chats[i].ThreadID == c.activeThread {
			chat := c.chats[i]
			return &chat
		}
	}
	return nil
}

// Sending reports whether a send is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}
