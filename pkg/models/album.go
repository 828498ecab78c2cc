package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Album is a stored album document. Songs holds the ids of member songs; each
// member song's AlbumID must point back at this album.
type Album struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Title       string               `bson:"title"`
	Artist      string               `bson:"artist"`
	ImageURL    string               `bson:"image_url"`
	ReleaseYear int                  `bson:"release_year"`
	Songs       []primitive.ObjectID `bson:"songs"`
	CreatedAt   time.Time            `bson:"created_at"`
}

// AlbumOut is the wire representation of an Album.
type AlbumOut struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	ImageURL    string   `json:"imageUrl"`
	ReleaseYear int      `json:"releaseYear"`
	Songs       []string `json:"songs"`
	CreatedAt   string   `json:"createdAt"`
}

// AlbumDetailOut is AlbumOut with the member songs populated.
type AlbumDetailOut struct {
	AlbumOut
	SongDocs []SongOut `json:"songDocs"`
}

// NewAlbum creates an album document with a generated id, no songs and a
// creation timestamp.
func NewAlbum(title, artist string, releaseYear int) Album {
	return Album{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Artist:      artist,
		ReleaseYear: releaseYear,
		Songs:       []primitive.ObjectID{},
		CreatedAt:   time.Now().UTC(),
	}
}

// Out converts the document to its wire representation.
func (a Album) Out() AlbumOut {
	songs := make([]string, 0, len(a.Songs))
	for _, id := range a.Songs {
		songs = append(songs, id.Hex())
	}
	return AlbumOut{
		ID:          a.ID.Hex(),
		Title:       a.Title,
		Artist:      a.Artist,
		ImageURL:    a.ImageURL,
		ReleaseYear: a.ReleaseYear,
		Songs:       songs,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

// AlbumsOut converts a slice of documents.
func AlbumsOut(albums []Album) []AlbumOut {
	out := make([]AlbumOut, 0, len(albums))
	for _, a := range albums {
		out = append(out, a.Out())
	}
	return out
}
