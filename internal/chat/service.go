// Package chat persists direct messages. It knows nothing about connections
// or recipients; routing a stored message to a live peer is the real-time
// gateway's job.
package chat

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"cadenza/pkg/models"
)

// MessageStore is the slice of the document store this service needs.
type MessageStore interface {
	InsertMessage(ctx context.Context, message models.Message) error
}

// Service persists chat messages.
type Service struct {
	store  MessageStore
	logger *logrus.Logger
}

// NewService creates a messaging service over the given store.
func NewService(store MessageStore, logger *logrus.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Send constructs a message with a generated id and current timestamp,
// persists it and returns the wire representation for direct re-emission.
// A store that does not durably accept the write fails the delivery.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string) (models.MessageOut, error) {
	message := models.NewMessage(senderID, receiverID, content)

	if err := s.store.InsertMessage(ctx, message); err != nil {
		s.logger.WithFields(logrus.Fields{
			"sender_id":   senderID,
			"receiver_id": receiverID,
		}).WithError(err).Error("Failed to persist message")
		return models.MessageOut{}, fmt.Errorf("message delivery failed: %w", err)
	}

	return message.Out(), nil
}
