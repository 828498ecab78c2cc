package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"cadenza/internal/admin"
	"cadenza/internal/apperr"
)

// multipartMemory is how much of a parsed form stays in memory before
// spilling to temp files.
const multipartMemory = 8 << 20 // 8 MB

// handleAdminCheck probes the admin gate so the web client can decide whether
// to show the admin surface.
func (s *Server) handleAdminCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"admin": true})
}

// handleAdminCreateSong creates a song from a multipart form: title, artist,
// optional albumId and duration, plus imageFile and audioFile uploads.
func (s *Server) handleAdminCreateSong(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	// Two files plus form fields; cap the whole body at twice the per-file limit
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.config.MaxUploadBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, uploadTooLarge(err))
		return
	}
	defer s.discardMultipart(r)

	image, err := s.formUpload(r, "imageFile")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	audio, err := s.formUpload(r, "audioFile")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Title and artist stay optional here: the audio probe can fill them in
	// from the file's tags
	in := admin.SongInput{
		Title:   sanitizeInput(r.FormValue("title")),
		Artist:  sanitizeInput(r.FormValue("artist")),
		AlbumID: r.FormValue("albumId"),
		Image:   image,
		Audio:   audio,
	}
	if in.AlbumID != "" {
		if vErr := validateObjectID("albumId", in.AlbumID); vErr != nil {
			s.respondWithValidationError(w, r, []ValidationError{*vErr})
			return
		}
	}
	if raw := r.FormValue("duration"); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil || duration < 0 {
			s.respondWithValidationError(w, r, []ValidationError{{
				Field:   "duration",
				Message: "Duration must be a non-negative integer",
				Code:    "INVALID_DURATION",
			}})
			return
		}
		in.Duration = duration
	}

	song, err := s.workflow.CreateSong(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, song)
}

// handleAdminDeleteSong removes a song, unlinks it from its album and
// schedules media cleanup.
func (s *Server) handleAdminDeleteSong(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.workflow.DeleteSong(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Song deleted successfully"})
}

// handleAdminCreateAlbum creates an album from a multipart form: title,
// artist, releaseYear and an imageFile upload.
func (s *Server) handleAdminCreateAlbum(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, uploadTooLarge(err))
		return
	}
	defer s.discardMultipart(r)

	image, err := s.formUpload(r, "imageFile")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	in := admin.AlbumInput{
		Title:  sanitizeInput(r.FormValue("title")),
		Artist: sanitizeInput(r.FormValue("artist")),
		Image:  image,
	}
	if errs := validateRequiredFields(map[string]string{"title": in.Title, "artist": in.Artist}); len(errs) > 0 {
		s.respondWithValidationError(w, r, errs)
		return
	}
	if raw := r.FormValue("releaseYear"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			s.respondWithValidationError(w, r, []ValidationError{{
				Field:   "releaseYear",
				Message: "Release year must be an integer",
				Code:    "INVALID_RELEASE_YEAR",
			}})
			return
		}
		in.ReleaseYear = year
	}

	album, err := s.workflow.CreateAlbum(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, album)
}

// handleAdminDeleteAlbum removes an album, cascades to its songs and
// schedules media cleanup.
func (s *Server) handleAdminDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if _, err := s.verifier.RequireAdmin(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.workflow.DeleteAlbum(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Album deleted successfully"})
}

// formUpload pulls one named file out of the parsed multipart form.
func (s *Server) formUpload(r *http.Request, field string) (admin.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return admin.Upload{}, apperr.BadRequest("Please upload all files")
	}
	if header.Size > s.config.MaxUploadBytes() {
		_ = file.Close()
		return admin.Upload{}, apperr.BadRequest("File is too large")
	}
	return admin.Upload{File: file, Filename: header.Filename}, nil
}

// discardMultipart removes the form's temp files after the handler finishes.
func (s *Server) discardMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.WithError(err).Warn("Failed to remove multipart temp files")
		}
	}
}

// uploadTooLarge maps body-limit errors to a client-facing failure.
func uploadTooLarge(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return apperr.Wrap(apperr.BadRequest("Upload exceeds the size limit"), err)
	}
	return apperr.Wrap(apperr.BadRequest("Malformed multipart form"), err)
}
