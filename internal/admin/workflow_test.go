package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cadenza/internal/apperr"
	"cadenza/internal/media"
	"cadenza/internal/store"
	"cadenza/pkg/models"
)

type fakeStore struct {
	mu     sync.Mutex
	albums map[primitive.ObjectID]models.Album
	songs  map[primitive.ObjectID]models.Song

	insertSongErr  error
	insertAlbumErr error
	pushModified   int64
	pushErr        error
	pushCalls      int
	pullModified   int64
	pullCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		albums:       make(map[primitive.ObjectID]models.Album),
		songs:        make(map[primitive.ObjectID]models.Song),
		pushModified: 1,
		pullModified: 1,
	}
}

func (f *fakeStore) InsertSong(_ context.Context, song models.Song) error {
	if f.insertSongErr != nil {
		return f.insertSongErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.songs[song.ID] = song
	return nil
}

func (f *fakeStore) FindAndDeleteSong(_ context.Context, id primitive.ObjectID) (*models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	song, ok := f.songs[id]
	if !ok {
		return nil, nil
	}
	delete(f.songs, id)
	return &song, nil
}

func (f *fakeStore) DeleteSongsByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := f.songs[id]; ok {
			delete(f.songs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) InsertAlbum(_ context.Context, album models.Album) error {
	if f.insertAlbumErr != nil {
		return f.insertAlbumErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[album.ID] = album
	return nil
}

func (f *fakeStore) FindAlbumByID(_ context.Context, id primitive.ObjectID) (*models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	album, ok := f.albums[id]
	if !ok {
		return nil, nil
	}
	return &album, nil
}

func (f *fakeStore) PushAlbumSong(_ context.Context, albumID, songID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	if f.pushErr != nil {
		return 0, f.pushErr
	}
	if f.pushModified == 1 {
		album := f.albums[albumID]
		album.Songs = append(album.Songs, songID)
		f.albums[albumID] = album
	}
	return f.pushModified, nil
}

func (f *fakeStore) PullAlbumSong(_ context.Context, albumID, songID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullCalls++
	if f.pullModified == 1 {
		album := f.albums[albumID]
		kept := album.Songs[:0]
		for _, id := range album.Songs {
			if id != songID {
				kept = append(kept, id)
			}
		}
		album.Songs = kept
		f.albums[albumID] = album
	}
	return f.pullModified, nil
}

func (f *fakeStore) FindAndDeleteAlbum(_ context.Context, id primitive.ObjectID) (*models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	album, ok := f.albums[id]
	if !ok {
		return nil, nil
	}
	delete(f.albums, id)
	return &album, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string // "<type>:<folder>"
	imageErr error
	audioErr error
}

func newHost() *fakeUploader { return &fakeUploader{} }

func (f *fakeUploader) Upload(_ context.Context, _ io.Reader, resourceType media.ResourceType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resourceType == media.ResourceImage && f.imageErr != nil {
		return "", f.imageErr
	}
	if resourceType == media.ResourceAudio && f.audioErr != nil {
		return "", f.audioErr
	}
	f.uploads = append(f.uploads, string(resourceType)+":"+folder)
	return "https://media.example/" + folder + "/" + string(resourceType), nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeJanitor struct {
	mu        sync.Mutex
	scheduled []string
}

func (f *fakeJanitor) Schedule(folder string) *media.CleanupJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, folder)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func upload(name string) Upload {
	return Upload{File: strings.NewReader("bytes"), Filename: name}
}

func songInput() SongInput {
	return SongInput{
		Title:    "Night Tide",
		Artist:   "The Harbor Lights",
		Duration: 214,
		Image:    upload("cover.jpg"),
		Audio:    upload("track.mp3"),
	}
}

func TestCreateSongWithoutAlbum(t *testing.T) {
	st := newFakeStore()
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	out, err := w.CreateSong(context.Background(), songInput())
	if err != nil {
		t.Fatalf("CreateSong returned error: %v", err)
	}

	if out.ImageURL == "" || out.AudioURL == "" {
		t.Errorf("expected media URLs on the result, got %+v", out)
	}
	if out.AlbumID != "" {
		t.Errorf("expected no album linkage, got %q", out.AlbumID)
	}
	if st.pushCalls != 0 {
		t.Errorf("expected no album link attempt, got %d", st.pushCalls)
	}
	if len(jan.scheduled) != 0 {
		t.Errorf("expected no cleanup on success, got %v", jan.scheduled)
	}
	if len(st.songs) != 1 {
		t.Errorf("expected one persisted song, got %d", len(st.songs))
	}
}

func TestCreateSongMissingAlbumFailsBeforeUpload(t *testing.T) {
	st := newFakeStore()
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	in := songInput()
	in.AlbumID = primitive.NewObjectID().Hex()

	_, err := w.CreateSong(context.Background(), in)
	if err == nil {
		t.Fatal("expected album-not-found error")
	}
	if apiErr := apperr.FromError(err); apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d (%s)", apiErr.Status, apiErr.Detail)
	}
	if n := host.count(); n != 0 {
		t.Errorf("expected no upload before the existence check, got %d", n)
	}
	if len(st.songs) != 0 {
		t.Errorf("expected no persisted song, got %d", len(st.songs))
	}
}

func TestCreateSongLinksIntoAlbum(t *testing.T) {
	st := newFakeStore()
	album := models.NewAlbum("Night Tide", "The Harbor Lights", 2021)
	st.albums[album.ID] = album
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	in := songInput()
	in.AlbumID = album.ID.Hex()

	out, err := w.CreateSong(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateSong returned error: %v", err)
	}
	if out.AlbumID != album.ID.Hex() {
		t.Errorf("expected album reference on the result, got %q", out.AlbumID)
	}

	linked := st.albums[album.ID]
	if len(linked.Songs) != 1 || linked.Songs[0].Hex() != out.ID {
		t.Errorf("expected song id in the album song set, got %v", linked.Songs)
	}
}

func TestCreateSongInsertWithoutIDSchedulesCleanup(t *testing.T) {
	st := newFakeStore()
	st.insertSongErr = store.ErrNoDocumentID
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	_, err := w.CreateSong(context.Background(), songInput())
	if err == nil {
		t.Fatal("expected failure when the insert reports no id")
	}
	if apiErr := apperr.FromError(err); apiErr.Detail != "Internal server error." {
		t.Errorf("expected generic internal detail, got %q", apiErr.Detail)
	}

	if len(jan.scheduled) != 1 || !strings.HasPrefix(jan.scheduled[0], "songs/") {
		t.Errorf("expected one scheduled song cleanup, got %v", jan.scheduled)
	}
}

func TestCreateSongFailedLinkRollsBack(t *testing.T) {
	st := newFakeStore()
	album := models.NewAlbum("Night Tide", "The Harbor Lights", 2021)
	st.albums[album.ID] = album
	st.pushModified = 0 // album vanishes between check and link
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	in := songInput()
	in.AlbumID = album.ID.Hex()

	_, err := w.CreateSong(context.Background(), in)
	if err == nil {
		t.Fatal("expected failure when the link modifies nothing")
	}
	if apiErr := apperr.FromError(err); apiErr.Detail != "Internal server error." {
		t.Errorf("expected generic internal detail, got %q", apiErr.Detail)
	}

	if len(st.songs) != 0 {
		t.Errorf("expected the inserted song rolled back, got %d remaining", len(st.songs))
	}
	if len(jan.scheduled) != 1 {
		t.Errorf("expected one scheduled cleanup, got %v", jan.scheduled)
	}
}

func TestCreateSongUploadRejectionIsClientFacing(t *testing.T) {
	st := newFakeStore()
	host := newHost()
	host.audioErr = fmt.Errorf("%w: video format not allowed", media.ErrNotAllowed)
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	_, err := w.CreateSong(context.Background(), songInput())
	if err == nil {
		t.Fatal("expected upload rejection error")
	}
	if apiErr := apperr.FromError(err); apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d (%s)", apiErr.Status, apiErr.Detail)
	}

	// The cover may have landed before the audio was rejected
	if len(jan.scheduled) != 1 {
		t.Errorf("expected cleanup scheduled for the partial upload, got %v", jan.scheduled)
	}
	if len(st.songs) != 0 {
		t.Errorf("expected no persisted song, got %d", len(st.songs))
	}
}

func TestDeleteSongInvalidID(t *testing.T) {
	st := newFakeStore()
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	err := w.DeleteSong(context.Background(), "not-a-hex-id")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apiErr := apperr.FromError(err); apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d (%s)", apiErr.Status, apiErr.Detail)
	}
	if st.pullCalls != 0 || len(jan.scheduled) != 0 {
		t.Error("expected no store mutation or cleanup for a malformed id")
	}
}

func TestDeleteSongUnlinksAndSchedulesCleanup(t *testing.T) {
	st := newFakeStore()
	album := models.NewAlbum("Night Tide", "The Harbor Lights", 2021)
	song := models.NewSong("Undertow", "The Harbor Lights", 187, &album.ID)
	album.Songs = append(album.Songs, song.ID)
	st.albums[album.ID] = album
	st.songs[song.ID] = song
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	if err := w.DeleteSong(context.Background(), song.ID.Hex()); err != nil {
		t.Fatalf("DeleteSong returned error: %v", err)
	}

	if len(st.songs) != 0 {
		t.Errorf("expected the song removed, got %d remaining", len(st.songs))
	}
	if got := st.albums[album.ID].Songs; len(got) != 0 {
		t.Errorf("expected the album song set emptied, got %v", got)
	}
	if len(jan.scheduled) != 1 || jan.scheduled[0] != "songs/"+song.ID.Hex() {
		t.Errorf("expected cleanup for the song folder, got %v", jan.scheduled)
	}
}

func TestDeleteSongZeroModifiedUnlinkIsFatal(t *testing.T) {
	st := newFakeStore()
	album := models.NewAlbum("Night Tide", "The Harbor Lights", 2021)
	song := models.NewSong("Undertow", "The Harbor Lights", 187, &album.ID)
	st.albums[album.ID] = album
	st.songs[song.ID] = song
	st.pullModified = 0
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	err := w.DeleteSong(context.Background(), song.ID.Hex())
	if err == nil {
		t.Fatal("expected fatal error for a zero-modified unlink")
	}
	if apiErr := apperr.FromError(err); apiErr.Detail != "Internal server error." {
		t.Errorf("expected generic internal detail, got %q", apiErr.Detail)
	}
}

func TestCreateAlbumCompensatesOnInsertFailure(t *testing.T) {
	st := newFakeStore()
	st.insertAlbumErr = errors.New("write concern not satisfied")
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	_, err := w.CreateAlbum(context.Background(), AlbumInput{
		Title:       "Night Tide",
		Artist:      "The Harbor Lights",
		ReleaseYear: 2021,
		Image:       upload("cover.jpg"),
	})
	if err == nil {
		t.Fatal("expected insert failure")
	}
	if len(jan.scheduled) != 1 || !strings.HasPrefix(jan.scheduled[0], "albums/") {
		t.Errorf("expected one scheduled album cleanup, got %v", jan.scheduled)
	}
}

func TestDeleteAlbumCascades(t *testing.T) {
	st := newFakeStore()
	album := models.NewAlbum("Night Tide", "The Harbor Lights", 2021)
	first := models.NewSong("Undertow", "The Harbor Lights", 187, &album.ID)
	second := models.NewSong("Slack Water", "The Harbor Lights", 243, &album.ID)
	album.Songs = []primitive.ObjectID{first.ID, second.ID}
	st.albums[album.ID] = album
	st.songs[first.ID] = first
	st.songs[second.ID] = second
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	if err := w.DeleteAlbum(context.Background(), album.ID.Hex()); err != nil {
		t.Fatalf("DeleteAlbum returned error: %v", err)
	}

	if len(st.albums) != 0 {
		t.Errorf("expected the album removed, got %d remaining", len(st.albums))
	}
	if len(st.songs) != 0 {
		t.Errorf("expected member songs removed, got %d remaining", len(st.songs))
	}

	want := map[string]bool{
		"albums/" + album.ID.Hex(): false,
		"songs/" + first.ID.Hex():  false,
		"songs/" + second.ID.Hex(): false,
	}
	for _, folder := range jan.scheduled {
		if _, ok := want[folder]; ok {
			want[folder] = true
		}
	}
	for folder, seen := range want {
		if !seen {
			t.Errorf("expected cleanup scheduled for %s, got %v", folder, jan.scheduled)
		}
	}
}

func TestDeleteAlbumNotFound(t *testing.T) {
	st := newFakeStore()
	host := newHost()
	jan := &fakeJanitor{}
	w := NewWorkflow(st, host, jan, nil, testLogger())

	err := w.DeleteAlbum(context.Background(), primitive.NewObjectID().Hex())
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if apiErr := apperr.FromError(err); apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d (%s)", apiErr.Status, apiErr.Detail)
	}
}
