package chat

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"cadenza/internal/store"
	"cadenza/pkg/models"
)

type fakeMessageStore struct {
	inserted []models.Message
	err      error
}

func (f *fakeMessageStore) InsertMessage(_ context.Context, message models.Message) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, message)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func TestSendPersistsAndShapesMessage(t *testing.T) {
	fake := &fakeMessageStore{}
	svc := NewService(fake, testLogger())

	out, err := svc.Send(context.Background(), "sender-1", "receiver-1", "hello there")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(fake.inserted) != 1 {
		t.Fatalf("expected one persisted message, got %d", len(fake.inserted))
	}
	stored := fake.inserted[0]

	if out.ID != stored.ID.Hex() {
		t.Errorf("expected wire id %q, got %q", stored.ID.Hex(), out.ID)
	}
	if out.SenderID != "sender-1" || out.ReceiverID != "receiver-1" {
		t.Errorf("unexpected routing fields: %+v", out)
	}
	if out.Content != "hello there" {
		t.Errorf("expected content preserved, got %q", out.Content)
	}
	if _, err := time.Parse(time.RFC3339, out.CreatedAt); err != nil {
		t.Errorf("expected RFC 3339 timestamp, got %q: %v", out.CreatedAt, err)
	}
}

func TestSendFailsWhenStoreReportsNoID(t *testing.T) {
	fake := &fakeMessageStore{err: store.ErrNoDocumentID}
	svc := NewService(fake, testLogger())

	_, err := svc.Send(context.Background(), "sender-1", "receiver-1", "hello")
	if err == nil {
		t.Fatal("expected delivery error when the store reports no document id")
	}
}
