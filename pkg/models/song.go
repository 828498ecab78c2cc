package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Song is a stored song document. Media URLs point at the remote media host;
// AlbumID is nil for singles.
type Song struct {
	ID        primitive.ObjectID  `bson:"_id"`
	Title     string              `bson:"title"`
	Artist    string              `bson:"artist"`
	ImageURL  string              `bson:"image_url"`
	AudioURL  string              `bson:"audio_url"`
	Duration  int                 `bson:"duration"` // in seconds
	AlbumID   *primitive.ObjectID `bson:"album_id"`
	CreatedAt time.Time           `bson:"created_at"`
}

// SongOut is the wire representation of a Song: ids stringified, timestamp
// in RFC 3339.
type SongOut struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	ImageURL  string `json:"imageUrl"`
	AudioURL  string `json:"audioUrl"`
	Duration  int    `json:"duration"`
	AlbumID   string `json:"albumId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// NewSong creates a song document with a generated id and creation timestamp.
// Media URLs are filled in after the uploads succeed.
func NewSong(title, artist string, duration int, albumID *primitive.ObjectID) Song {
	return Song{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Artist:    artist,
		Duration:  duration,
		AlbumID:   albumID,
		CreatedAt: time.Now().UTC(),
	}
}

// Out converts the document to its wire representation.
func (s Song) Out() SongOut {
	out := SongOut{
		ID:        s.ID.Hex(),
		Title:     s.Title,
		Artist:    s.Artist,
		ImageURL:  s.ImageURL,
		AudioURL:  s.AudioURL,
		Duration:  s.Duration,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.AlbumID != nil {
		out.AlbumID = s.AlbumID.Hex()
	}
	return out
}

// SongsOut converts a slice of documents, returning an empty (non-nil) slice
// for empty input so the JSON encoding is always an array.
func SongsOut(songs []Song) []SongOut {
	out := make([]SongOut, 0, len(songs))
	for _, s := range songs {
		out = append(out, s.Out())
	}
	return out
}
