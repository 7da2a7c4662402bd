// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as services and handlers to distinguish between different
// failure scenarios and branch on them with errors.Is, instead of
// guessing from a generic error string.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a showtime that still has confirmed bookings. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// Not-found sentinels, one per aggregate.  Each repository returns
// its own so handlers can answer 404 without inspecting SQL errors.
var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrTheatreNotFound  = errors.New("theatre not found")
	ErrScreenNotFound   = errors.New("screen not found")
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrUserNotFound     = errors.New("user not found")
)

// isFKError reports whether a MySQL error is a foreign key
// violation (1451: row referenced, 1452: reference missing).
func isFKError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1451") || strings.Contains(msg, "1452")
}

// isDuplicateError reports whether a MySQL error is a unique key
// violation (1062).
func isDuplicateError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
