package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"cadenza/pkg/models"
)

// InsertUser stores a new user document.
func (s *Store) InsertUser(ctx context.Context, user models.User) error {
	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if result.InsertedID == nil {
		return ErrNoDocumentID
	}
	return nil
}

// FindUserByID looks a user up by their identity-provider id. Returns
// (nil, nil) when no such user exists.
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// ListUsersExcept returns every user other than the given one, newest first.
func (s *Store) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$ne": id}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of user documents.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
