// Package client holds the chat-side conversation state machine used by the
// terminal client: it tracks the active conversation, folds streamed chunks
// into the transcript, and persists finished exchanges through the
// conversation endpoints.
package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Qqcola/ads-price-compare/internal/api"
	"github.com/Qqcola/ads-price-compare/internal/catalog"
	"github.com/Qqcola/ads-price-compare/internal/relay"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

type Conversation struct {
	ID       string
	UserID   string
	Name     string
	EditTime string
	History  []store.HistoryEntry

	// pendingCreate marks a conversation started locally and not yet pushed
	// to the server; cleared after the first exchange persists.
	pendingCreate bool
}

// List is the client conversation state machine. A nil current conversation
// is the Home state. List is not safe for concurrent use; callers drive it
// from a single event loop, like the browser client it mirrors.
type List struct {
	api     *API
	userID  string
	convs   []*Conversation
	current *Conversation
}

func NewList(apiClient *API, userID string) *List {
	return &List{api: apiClient, userID: userID}
}

// Load replaces the in-memory list with the user's stored conversations,
// most recently edited first.
func (l *List) Load(ctx context.Context) error {
	stored, err := l.api.FindConversationsByUser(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	l.convs = l.convs[:0]
	for _, c := range stored {
		l.convs = append(l.convs, &Conversation{
			ID:       c.ID,
			UserID:   c.UserID,
			Name:     c.Name,
			EditTime: c.EditTime,
			History:  c.History,
		})
	}
	l.current = nil
	return nil
}

func (l *List) Conversations() []*Conversation {
	return l.convs
}

// Current returns nil in the Home state.
func (l *List) Current() *Conversation {
	return l.current
}

// GoHome deselects without losing any history.
func (l *List) GoHome() {
	l.current = nil
}

func (l *List) Select(id string) bool {
	for _, c := range l.convs {
		if c.ID == id {
			l.current = c
			return true
		}
	}
	return false
}

// Send records an outgoing user message and returns the socket payload for
// it. From Home it starts a new pending conversation. The payload's history
// is the transcript before this message, matching what the relay expects.
func (l *List) Send(text string) (relay.MessagePayload, bool) {
	if text == "" {
		return relay.MessagePayload{}, false
	}

	if l.current == nil {
		conv := &Conversation{
			ID:            uuid.NewString(),
			UserID:        l.userID,
			Name:          catalog.DeriveName(text),
			EditTime:      editTimeNow(),
			pendingCreate: true,
		}
		l.convs = append([]*Conversation{conv}, l.convs...)
		l.current = conv
	}

	conv := l.current
	payload := relay.MessagePayload{
		Text:    text,
		History: append([]store.HistoryEntry(nil), conv.History...),
	}

	conv.History = append(conv.History, store.HistoryEntry{Speaker: store.SpeakerUser, Text: text})
	conv.EditTime = editTimeNow()
	l.moveToFront(conv)
	return payload, true
}

// ApplyChunk folds one streamed fragment into the transcript: it extends
// the trailing BOT entry, or starts one if the last entry is the user's.
// Concatenation, not replacement — repeated chunks accumulate.
func (l *List) ApplyChunk(text string) {
	conv := l.current
	if conv == nil {
		return
	}

	n := len(conv.History)
	if n == 0 || conv.History[n-1].Speaker != store.SpeakerBot {
		conv.History = append(conv.History, store.HistoryEntry{Speaker: store.SpeakerBot, Text: text})
	} else {
		conv.History[n-1].Text += text
	}
	conv.EditTime = editTimeNow()
}

// FinishExchange persists the just-completed user/bot pair: a create for a
// pending conversation, an update otherwise. Persistence failures are
// logged, not surfaced to the transcript.
func (l *List) FinishExchange(ctx context.Context) error {
	conv := l.current
	if conv == nil || len(conv.History) < 2 {
		return nil
	}

	n := len(conv.History)
	userText := conv.History[n-2].Text
	botText := conv.History[n-1].Text

	if conv.pendingCreate {
		err := l.api.PushConversation(ctx, api.PushConversationRequest{
			ID:       conv.ID,
			UserID:   conv.UserID,
			Name:     conv.Name,
			EditTime: conv.EditTime,
			UserText: userText,
			BotText:  botText,
		})
		if err != nil {
			log.Printf("push conversation %s failed: %v", conv.ID, err)
			return err
		}
		conv.pendingCreate = false
		return nil
	}

	err := l.api.UpdateConversation(ctx, api.UpdateConversationRequest{
		ID:       conv.ID,
		UserText: userText,
		BotText:  botText,
		EditTime: conv.EditTime,
	})
	if err != nil {
		log.Printf("update conversation %s failed: %v", conv.ID, err)
	}
	return err
}

// Delete removes a conversation from the list and the server. Deleting the
// active conversation returns to Home.
func (l *List) Delete(ctx context.Context, id string) error {
	kept := l.convs[:0]
	for _, c := range l.convs {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	l.convs = kept
	if l.current != nil && l.current.ID == id {
		l.current = nil
	}
	return l.api.DeleteConversationByID(ctx, id)
}

func (l *List) moveToFront(conv *Conversation) {
	kept := make([]*Conversation, 0, len(l.convs))
	kept = append(kept, conv)
	for _, c := range l.convs {
		if c != conv {
			kept = append(kept, c)
		}
	}
	l.convs = kept
}

func editTimeNow() string {
	return time.Now().Format("1/2/2006, 3:04:05 PM")
}
