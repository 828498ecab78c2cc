package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a stored direct message. Immutable once created.
type Message struct {
	ID         primitive.ObjectID `bson:"_id"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Content    string             `bson:"content"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// MessageOut is the wire representation of a Message, suitable for direct
// re-emission over the real-time transport.
type MessageOut struct {
	ID         string `json:"_id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
}

// NewMessage creates a message document with a generated id and timestamp.
func NewMessage(senderID, receiverID, content string) Message {
	return Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// Out converts the document to its wire representation.
func (m Message) Out() MessageOut {
	return MessageOut{
		ID:         m.ID.Hex(),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

// MessagesOut converts a slice of documents.
func MessagesOut(messages []Message) []MessageOut {
	out := make([]MessageOut, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Out())
	}
	return out
}
