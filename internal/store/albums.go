package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cadenza/pkg/models"
)

// InsertAlbum stores a new album document.
func (s *Store) InsertAlbum(ctx context.Context, album models.Album) error {
	result, err := s.albums.InsertOne(ctx, album)
	if err != nil {
		return fmt.Errorf("failed to insert album: %w", err)
	}
	if result.InsertedID == nil {
		return ErrNoDocumentID
	}
	return nil
}

// FindAlbumByID returns the album with the given id, or (nil, nil) when it
// does not exist.
func (s *Store) FindAlbumByID(ctx context.Context, id primitive.ObjectID) (*models.Album, error) {
	var album models.Album
	err := s.albums.FindOne(ctx, bson.M{"_id": id}).Decode(&album)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find album: %w", err)
	}
	return &album, nil
}

// ListAlbums returns all albums, newest first.
func (s *Store) ListAlbums(ctx context.Context) ([]models.Album, error) {
	cursor, err := s.albums.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	var albums []models.Album
	if err := cursor.All(ctx, &albums); err != nil {
		return nil, fmt.Errorf("failed to decode albums: %w", err)
	}
	return albums, nil
}

// PushAlbumSong appends a song id to an album's song set, returning the
// number of documents modified. A zero count means the album vanished between
// the existence check and the link.
func (s *Store) PushAlbumSong(ctx context.Context, albumID, songID primitive.ObjectID) (int64, error) {
	result, err := s.albums.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{"$push": bson.M{"songs": songID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to link song to album: %w", err)
	}
	return result.ModifiedCount, nil
}

// PullAlbumSong removes a song id from an album's song set, returning the
// number of documents modified.
func (s *Store) PullAlbumSong(ctx context.Context, albumID, songID primitive.ObjectID) (int64, error) {
	result, err := s.albums.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{"$pull": bson.M{"songs": songID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to unlink song from album: %w", err)
	}
	return result.ModifiedCount, nil
}

// FindAndDeleteAlbum atomically removes an album and returns the removed
// document, or (nil, nil) when no album with that id exists.
func (s *Store) FindAndDeleteAlbum(ctx context.Context, id primitive.ObjectID) (*models.Album, error) {
	var album models.Album
	err := s.albums.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&album)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find and delete album: %w", err)
	}
	return &album, nil
}

// CountAlbums returns the number of album documents.
func (s *Store) CountAlbums(ctx context.Context) (int64, error) {
	count, err := s.albums.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", err)
	}
	return count, nil
}
