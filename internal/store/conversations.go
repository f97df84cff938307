package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// PushConversation inserts a new conversation document, stamping its
// recency timestamp.
func (s *MongoStore) PushConversation(ctx context.Context, conv *Conversation) error {
	if conv.History == nil {
		conv.History = []HistoryEntry{}
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.conversations().InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// AppendExchange appends a finished user/bot pair to a conversation's
// history and bumps its edit time. Returns ErrNotFound when the id is
// unknown.
func (s *MongoStore) AppendExchange(ctx context.Context, id, userText, botText, editTime string) error {
	update := bson.M{
		"$push": bson.M{"history": bson.M{"$each": bson.A{
			HistoryEntry{Speaker: SpeakerUser, Text: userText},
			HistoryEntry{Speaker: SpeakerBot, Text: botText},
		}}},
		"$set": bson.M{
			"edit_time":  editTime,
			"updated_at": time.Now().UTC(),
		},
	}
	res, err := s.conversations().UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ConversationsByUser returns a user's conversations, most recently edited
// first.
func (s *MongoStore) ConversationsByUser(ctx context.Context, userID string) ([]Conversation, error) {
	cursor, err := s.conversations().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	if convs == nil {
		convs = []Conversation{}
	}
	sortByRecency(convs)
	return convs, nil
}

// sortByRecency orders conversations most recently edited first. The
// edit_time display string compares lexically, not chronologically, so
// ordering goes through the timestamp.
func sortByRecency(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

// DeleteConversationByID removes a conversation. Deleting an id that is
// already gone is not an error.
func (s *MongoStore) DeleteConversationByID(ctx context.Context, id string) error {
	if _, err := s.conversations().DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}
