package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoDocumentID reports a write the store acknowledged without returning a
// document id, meaning the write was not durably accepted. Callers treat this
// as an inconsistency and compensate.
var ErrNoDocumentID = errors.New("store: write acknowledged without a document id")

// Store is the process-wide document-store gateway. It owns the client
// connection and exposes typed access to the four collections. All mapping
// between bson documents and pkg/models structs happens inside this package.
// No retry logic lives here; callers handle transient failures.
type Store struct {
	client *mongo.Client
	logger *logrus.Logger

	users    *mongo.Collection
	albums   *mongo.Collection
	songs    *mongo.Collection
	messages *mongo.Collection
}

// NewStore connects to the document store and binds the named collections.
// Caller should Close() it when finished.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("document store unreachable: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		logger:   logger,
		users:    db.Collection("users"),
		albums:   db.Collection("albums"),
		songs:    db.Collection("songs"),
		messages: db.Collection("messages"),
	}

	logger.WithField("database", database).Info("Document store connected")
	return s, nil
}

// Bootstrap creates the unique index on the user email field. CreateOne with
// an identical specification is a no-op on the server, so repeated calls are
// safe.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique email index: %w", err)
	}
	return nil
}

// Ping verifies the store connection is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close releases network resources. Safe to call even if initialization
// failed partway.
func (s *Store) Close(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.WithError(err).Warn("Error disconnecting from document store")
	}
}
