package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"cadenza/internal/apperr"
)

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// respondError maps a workflow error onto an HTTP response. Client-facing
// errors keep their status and detail; everything else becomes a generic 500
// so internals never leak.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apperr.FromError(err)

	entry := s.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": apiErr.Status,
	}).WithError(err)

	if apiErr.Status >= 500 {
		entry.Error("Server error")
	} else {
		entry.Warn("Client error")
	}

	s.respondJSON(w, apiErr.Status, map[string]interface{}{
		"error":   apiErr.Detail,
		"code":    apiErr.Status,
		"success": false,
	})
}
