// Package apperr defines the error kinds workflows return so the HTTP and
// real-time boundaries can map failures to responses without inspecting
// internals. A client-facing error keeps its status and detail all the way to
// the boundary; everything else is coerced to ErrInternal there.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInternal is the generic internal failure surfaced whenever no
// client-facing error was identified. Its detail never leaks internals.
var ErrInternal = &Error{Status: http.StatusInternalServerError, Detail: "Internal server error."}

// Error is a client-facing error: Status is the HTTP-equivalent status code
// and Detail the message the caller may see. Err, if set, is the underlying
// cause and is logged, never serialized.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest builds a 400-equivalent error.
func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// Unprocessable builds a 422-equivalent error for malformed ids and failed
// field validation.
func Unprocessable(detail string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Detail: detail}
}

// NotFound builds a 404-equivalent error.
func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

// Unauthorized builds a 401-equivalent error.
func Unauthorized(detail string) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: detail}
}

// Forbidden builds a 403-equivalent error.
func Forbidden(detail string) *Error {
	return &Error{Status: http.StatusForbidden, Detail: detail}
}

// Wrap attaches an underlying cause to a client-facing error, preserving the
// status and detail.
func Wrap(e *Error, err error) *Error {
	return &Error{Status: e.Status, Detail: e.Detail, Err: err}
}

// FromError returns the client-facing error inside err, or ErrInternal when
// err carries no recognized shape. Boundaries call this so a caller never
// observes an unstructured failure.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal
}
