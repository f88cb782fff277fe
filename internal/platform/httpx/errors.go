// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a sentinel kind plus the user-facing detail message.
type Error struct {
	kind   error
	detail string
}

// E builds an Error of the given kind.
func E(kind error, detail string) *Error {
	return &Error{kind: kind, detail: detail}
}

// Error returns the user-facing detail.
func (e *Error) Error() string { return e.detail }

// Unwrap exposes the sentinel kind for errors.Is checks.
func (e *Error) Unwrap() error { return e.kind }

// RespondError maps domain errors to a {detail} JSON response with a
// stable status code.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		Detail(w, http.StatusBadRequest, detailOf(err, "Invalid request"))
	case errors.Is(err, ErrUnauthorized):
		Detail(w, http.StatusUnauthorized, detailOf(err, "Invalid credentials"))
	case errors.Is(err, ErrForbidden):
		Detail(w, http.StatusForbidden, detailOf(err, "Forbidden"))
	case errors.Is(err, ErrNotFound):
		Detail(w, http.StatusNotFound, detailOf(err, "Resource not found"))
	case errors.Is(err, ErrConflict):
		Detail(w, http.StatusConflict, detailOf(err, "Conflict"))
	default:
		Detail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func detailOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.detail != "" {
		return e.detail
	}
	return fallback
}
