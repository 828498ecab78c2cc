package server

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondWithValidationError sends a structured validation error response
func (s *Server) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	s.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	s.respondJSON(w, http.StatusUnprocessableEntity, result)
}

// validateObjectID checks a non-empty document id for the store's hex format.
func validateObjectID(field, value string) *ValidationError {
	if _, err := primitive.ObjectIDFromHex(value); err != nil {
		return invalidObjectID(field, value)
	}
	return nil
}

func invalidObjectID(field, _ string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "ID must be a 24-character hex string",
		Code:    "INVALID_ID_FORMAT",
	}
}

// validateRequiredFields reports every empty field in one pass so the client
// can show all problems at once.
func validateRequiredFields(fields map[string]string) []ValidationError {
	var errors []ValidationError
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: field + " is required",
				Code:    "MISSING_FIELD",
			})
		}
	}
	return errors
}

// sanitizeInput strips null bytes and surrounding whitespace from user input.
func sanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
