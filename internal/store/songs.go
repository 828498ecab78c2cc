package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cadenza/pkg/models"
)

// InsertSong stores a new song document.
func (s *Store) InsertSong(ctx context.Context, song models.Song) error {
	result, err := s.songs.InsertOne(ctx, song)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	if result.InsertedID == nil {
		return ErrNoDocumentID
	}
	return nil
}

// FindAndDeleteSong atomically removes a song and returns the removed
// document, or (nil, nil) when no song with that id exists.
func (s *Store) FindAndDeleteSong(ctx context.Context, id primitive.ObjectID) (*models.Song, error) {
	var song models.Song
	err := s.songs.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&song)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find and delete song: %w", err)
	}
	return &song, nil
}

// DeleteSongsByIDs bulk-deletes the given songs, returning how many documents
// were removed.
func (s *Store) DeleteSongsByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := s.songs.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete songs: %w", err)
	}
	return result.DeletedCount, nil
}

// ListSongs returns all songs, newest first.
func (s *Store) ListSongs(ctx context.Context) ([]models.Song, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.songs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	var songs []models.Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	return songs, nil
}

// FindSongsByIDs returns the songs with the given ids, in store order.
func (s *Store) FindSongsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.songs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find songs: %w", err)
	}
	var songs []models.Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	return songs, nil
}

// SampleSongs returns up to count songs picked at random, used for the
// featured/trending selections.
func (s *Store) SampleSongs(ctx context.Context, count int) ([]models.Song, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": count}}},
	}
	cursor, err := s.songs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample songs: %w", err)
	}
	var songs []models.Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode sampled songs: %w", err)
	}
	return songs, nil
}

// CountSongs returns the number of song documents.
func (s *Store) CountSongs(ctx context.Context) (int64, error) {
	count, err := s.songs.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}
