// Package admin orchestrates content creation and deletion: remote media
// uploads, record persistence, parent-album linkage and the compensating
// cleanup that keeps the store and the media host consistent when a step
// fails partway.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cadenza/internal/apperr"
	"cadenza/internal/media"
	"cadenza/internal/metadata"
	"cadenza/pkg/models"
)

// ContentStore is the slice of the document store the workflow mutates.
// Implemented by store.Store.
type ContentStore interface {
	InsertSong(ctx context.Context, song models.Song) error
	FindAndDeleteSong(ctx context.Context, id primitive.ObjectID) (*models.Song, error)
	DeleteSongsByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)

	InsertAlbum(ctx context.Context, album models.Album) error
	FindAlbumByID(ctx context.Context, id primitive.ObjectID) (*models.Album, error)
	PushAlbumSong(ctx context.Context, albumID, songID primitive.ObjectID) (int64, error)
	PullAlbumSong(ctx context.Context, albumID, songID primitive.ObjectID) (int64, error)
	FindAndDeleteAlbum(ctx context.Context, id primitive.ObjectID) (*models.Album, error)
}

// Uploader is the upload side of the media host. Implemented by
// media.Cloudinary.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, resourceType media.ResourceType, folder string) (string, error)
}

// Janitor schedules fire-and-forget remote media deletion. Implemented by
// media.Cleanup.
type Janitor interface {
	Schedule(folder string) *media.CleanupJob
}

// Upload is one file from a multipart request.
type Upload struct {
	File     io.ReadSeeker
	Filename string
}

// SongInput is the validated body of a song creation request. AlbumID is the
// optional parent album as a hex string; Duration may be zero, in which case
// the audio probe fills it in.
type SongInput struct {
	Title    string
	Artist   string
	Duration int
	AlbumID  string
	Image    Upload
	Audio    Upload
}

// AlbumInput is the validated body of an album creation request.
type AlbumInput struct {
	Title       string
	Artist      string
	ReleaseYear int
	Image       Upload
}

// Workflow runs the multi-step admin mutations. Every partial failure either
// rolls back synchronously or schedules compensating media cleanup before the
// error reaches the caller.
type Workflow struct {
	store   ContentStore
	host    Uploader
	cleanup Janitor
	probe   *metadata.Probe
	logger  *logrus.Logger
}

// NewWorkflow wires the admin workflow. probe may be nil to disable audio
// inspection.
func NewWorkflow(store ContentStore, host Uploader, cleanup Janitor, probe *metadata.Probe, logger *logrus.Logger) *Workflow {
	return &Workflow{
		store:   store,
		host:    host,
		cleanup: cleanup,
		probe:   probe,
		logger:  logger,
	}
}

func songFolder(id primitive.ObjectID) string  { return "songs/" + id.Hex() }
func albumFolder(id primitive.ObjectID) string { return "albums/" + id.Hex() }

// CreateSong validates the optional album reference, uploads cover and audio
// concurrently, persists the song and links it into the album. The album
// existence check runs before any upload so a bad reference costs nothing.
func (w *Workflow) CreateSong(ctx context.Context, in SongInput) (models.SongOut, error) {
	var albumID *primitive.ObjectID
	if in.AlbumID != "" {
		oid, err := primitive.ObjectIDFromHex(in.AlbumID)
		if err != nil {
			return models.SongOut{}, apperr.Unprocessable("Invalid album ID")
		}
		album, err := w.store.FindAlbumByID(ctx, oid)
		if err != nil {
			return models.SongOut{}, err
		}
		if album == nil {
			return models.SongOut{}, apperr.NotFound("Album not found")
		}
		albumID = &oid
	}

	if w.probe != nil && in.Audio.File != nil {
		probed := w.probe.Inspect(in.Audio.File, in.Audio.Filename)
		if in.Duration <= 0 {
			in.Duration = probed.Duration
		}
		if in.Title == "" {
			in.Title = probed.Title
		}
		if in.Artist == "" {
			in.Artist = probed.Artist
		}
	}
	if in.Title == "" || in.Artist == "" {
		return models.SongOut{}, apperr.Unprocessable("Missing required fields")
	}

	song := models.NewSong(in.Title, in.Artist, in.Duration, albumID)
	folder := songFolder(song.ID)

	imageURL, audioURL, err := w.uploadPair(ctx, in.Image, in.Audio, folder)
	if err != nil {
		// One side may have landed before the other failed
		w.cleanup.Schedule(folder)
		return models.SongOut{}, err
	}
	song.ImageURL = imageURL
	song.AudioURL = audioURL

	if err := w.store.InsertSong(ctx, song); err != nil {
		w.cleanup.Schedule(folder)
		return models.SongOut{}, fmt.Errorf("song insert failed: %w", err)
	}

	if albumID != nil {
		modified, err := w.store.PushAlbumSong(ctx, *albumID, song.ID)
		if err == nil && modified == 0 {
			err = fmt.Errorf("album %s vanished before linking song %s", albumID.Hex(), song.ID.Hex())
		}
		if err != nil {
			w.rollbackSong(ctx, song)
			return models.SongOut{}, fmt.Errorf("album link failed: %w", err)
		}
	}

	return song.Out(), nil
}

// uploadPair pushes cover and audio to the media host concurrently and waits
// for both.
func (w *Workflow) uploadPair(ctx context.Context, image, audio Upload, folder string) (string, string, error) {
	var wg sync.WaitGroup
	var imageURL, audioURL string
	var imageErr, audioErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		imageURL, imageErr = w.host.Upload(ctx, image.File, media.ResourceImage, folder)
	}()
	go func() {
		defer wg.Done()
		audioURL, audioErr = w.host.Upload(ctx, audio.File, media.ResourceAudio, folder)
	}()
	wg.Wait()

	if imageErr != nil {
		return "", "", uploadFailure(imageErr)
	}
	if audioErr != nil {
		return "", "", uploadFailure(audioErr)
	}
	return imageURL, audioURL, nil
}

// uploadFailure maps media-host rejections to client-facing errors; anything
// else stays unstructured and is coerced to a generic failure at the boundary.
func uploadFailure(err error) error {
	switch {
	case errors.Is(err, media.ErrNotAllowed):
		return apperr.Wrap(apperr.BadRequest("File type not allowed"), err)
	case errors.Is(err, media.ErrRejected):
		return apperr.Wrap(apperr.BadRequest("Malformed media upload"), err)
	default:
		return err
	}
}

// rollbackSong is the deletion path invoked when the album link failed after
// the insert succeeded. Best-effort: the caller is already surfacing a
// failure, so errors here are only logged.
func (w *Workflow) rollbackSong(ctx context.Context, song models.Song) {
	if _, err := w.store.FindAndDeleteSong(ctx, song.ID); err != nil {
		w.logger.WithField("song_id", song.ID.Hex()).WithError(err).Error("Song rollback failed to remove record")
	}
	if song.AlbumID != nil {
		// The link may or may not have landed; unlink is a no-op when it did not
		if _, err := w.store.PullAlbumSong(ctx, *song.AlbumID, song.ID); err != nil {
			w.logger.WithField("song_id", song.ID.Hex()).WithError(err).Error("Song rollback failed to unlink album")
		}
	}
	w.cleanup.Schedule(songFolder(song.ID))
}

// DeleteSong removes a song, unlinks it from its album and schedules media
// cleanup. A zero-modified unlink is a fatal inconsistency: the link was
// assumed to exist.
func (w *Workflow) DeleteSong(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Unprocessable("Invalid song ID")
	}

	song, err := w.store.FindAndDeleteSong(ctx, oid)
	if err != nil {
		return err
	}
	if song == nil {
		return apperr.NotFound("Song not found")
	}

	if song.AlbumID != nil {
		modified, err := w.store.PullAlbumSong(ctx, *song.AlbumID, song.ID)
		if err != nil {
			return err
		}
		if modified == 0 {
			return fmt.Errorf("song %s was not in album %s song set", song.ID.Hex(), song.AlbumID.Hex())
		}
	}

	w.cleanup.Schedule(songFolder(song.ID))
	return nil
}

// CreateAlbum uploads the cover and persists the album record, compensating
// with media cleanup when the insert fails.
func (w *Workflow) CreateAlbum(ctx context.Context, in AlbumInput) (models.AlbumOut, error) {
	if in.Title == "" || in.Artist == "" {
		return models.AlbumOut{}, apperr.Unprocessable("Missing required fields")
	}

	album := models.NewAlbum(in.Title, in.Artist, in.ReleaseYear)
	folder := albumFolder(album.ID)

	imageURL, err := w.host.Upload(ctx, in.Image.File, media.ResourceImage, folder)
	if err != nil {
		w.cleanup.Schedule(folder)
		return models.AlbumOut{}, uploadFailure(err)
	}
	album.ImageURL = imageURL

	if err := w.store.InsertAlbum(ctx, album); err != nil {
		w.cleanup.Schedule(folder)
		return models.AlbumOut{}, fmt.Errorf("album insert failed: %w", err)
	}

	return album.Out(), nil
}

// DeleteAlbum removes an album, bulk-deletes its member songs and schedules
// cleanup for the album's media and every deleted song's media. Song deletion
// and cleanup scheduling are not transactional with each other; a crash
// between them leaves orphaned remote media.
func (w *Workflow) DeleteAlbum(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Unprocessable("Invalid album ID")
	}

	album, err := w.store.FindAndDeleteAlbum(ctx, oid)
	if err != nil {
		return err
	}
	if album == nil {
		return apperr.NotFound("Album not found")
	}

	deleted, err := w.store.DeleteSongsByIDs(ctx, album.Songs)
	if err != nil {
		return fmt.Errorf("album song cascade failed: %w", err)
	}
	if deleted != int64(len(album.Songs)) {
		w.logger.WithFields(logrus.Fields{
			"album_id": album.ID.Hex(),
			"expected": len(album.Songs),
			"deleted":  deleted,
		}).Warn("Album cascade removed fewer songs than linked")
	}

	w.cleanup.Schedule(albumFolder(album.ID))
	for _, songID := range album.Songs {
		w.cleanup.Schedule(songFolder(songID))
	}
	return nil
}
