package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cadenza/pkg/models"
)

// InsertMessage stores a chat message.
func (s *Store) InsertMessage(ctx context.Context, message models.Message) error {
	result, err := s.messages.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if result.InsertedID == nil {
		return ErrNoDocumentID
	}
	return nil
}

// ListConversation returns all messages exchanged between two users in either
// direction, oldest first.
func (s *Store) ListConversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userA, "receiver_id": userB},
			bson.M{"sender_id": userB, "receiver_id": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
