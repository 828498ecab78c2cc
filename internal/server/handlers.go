package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cadenza/internal/apperr"
	"cadenza/pkg/models"
)

// handleAuthCallback creates the caller's user record on first sign-in. The
// profile comes from the verified session token, not the request body, so a
// caller can only ever create themselves. Idempotent: an existing record is
// left untouched.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	profile, err := s.verifier.FromRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	existing, err := s.store.FindUserByID(r.Context(), profile.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if existing == nil {
		user := models.NewUser(profile.ID, profile.FullName, profile.PrimaryEmail, profile.ImageURL)
		if err := s.store.InsertUser(r.Context(), user); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.logger.WithField("user_id", profile.ID).Info("User created from auth callback")
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleGetUsers returns every user except the caller.
func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	profile, err := s.verifier.FromRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	users, err := s.store.ListUsersExcept(r.Context(), profile.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.UsersOut(users))
}

// handleGetConversation returns the messages between the caller and another
// user, both directions, oldest first.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	profile, err := s.verifier.FromRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	otherID := r.PathValue("id")
	if otherID == "" {
		s.respondError(w, r, apperr.BadRequest("User ID is required"))
		return
	}

	messages, err := s.store.ListConversation(r.Context(), profile.ID, otherID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.MessagesOut(messages))
}

// handleGetSongs returns the full catalog, newest first. Admin only.
func (s *Server) handleGetSongs(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	songs, err := s.store.ListSongs(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.SongsOut(songs))
}

func (s *Server) handleGetFeaturedSongs(w http.ResponseWriter, r *http.Request) {
	s.respondSampledSongs(w, r, 6)
}

func (s *Server) handleGetMadeForYouSongs(w http.ResponseWriter, r *http.Request) {
	s.respondSampledSongs(w, r, 4)
}

func (s *Server) handleGetTrendingSongs(w http.ResponseWriter, r *http.Request) {
	s.respondSampledSongs(w, r, 4)
}

// respondSampledSongs serves the random-selection song endpoints.
func (s *Server) respondSampledSongs(w http.ResponseWriter, r *http.Request, count int) {
	songs, err := s.store.SampleSongs(r.Context(), count)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.SongsOut(songs))
}

// handleGetAlbums returns all albums without their songs populated.
func (s *Server) handleGetAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.store.ListAlbums(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.AlbumsOut(albums))
}

// handleGetAlbum returns one album with its member songs populated.
func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		s.respondWithValidationError(w, r, []ValidationError{*invalidObjectID("album_id", id)})
		return
	}

	album, err := s.store.FindAlbumByID(r.Context(), oid)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if album == nil {
		s.respondError(w, r, apperr.NotFound("Album not found"))
		return
	}

	songs, err := s.store.FindSongsByIDs(r.Context(), album.Songs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.AlbumDetailOut{
		AlbumOut: album.Out(),
		SongDocs: models.SongsOut(songs),
	})
}

// statsCounter is the slice of the store the stats endpoint reads.
// Implemented by store.Store.
type statsCounter interface {
	CountSongs(ctx context.Context) (int64, error)
	CountAlbums(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountDistinctArtists(ctx context.Context) (int64, error)
}

// gatherStats issues the four independent count queries concurrently and
// fails if any of them does.
func gatherStats(ctx context.Context, counter statsCounter) (models.Stats, error) {
	var stats models.Stats
	var wg sync.WaitGroup
	errs := make([]error, 4)

	count := func(dst *int64, slot int, fn func(context.Context) (int64, error)) {
		defer wg.Done()
		*dst, errs[slot] = fn(ctx)
	}

	wg.Add(4)
	go count(&stats.TotalSongs, 0, counter.CountSongs)
	go count(&stats.TotalAlbums, 1, counter.CountAlbums)
	go count(&stats.TotalUsers, 2, counter.CountUsers)
	go count(&stats.TotalArtists, 3, counter.CountDistinctArtists)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return models.Stats{}, err
		}
	}
	return stats, nil
}

// handleGetStats returns catalog and user totals. Admin only.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	stats, err := gatherStats(r.Context(), s.store)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Database:  "ok",
	}

	statusCode := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		health.Status = "unhealthy"
		health.Database = "error"
		statusCode = http.StatusServiceUnavailable
	}

	s.respondJSON(w, statusCode, health)
}
