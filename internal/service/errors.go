package service

import "errors"

// Sentinel errors returned by the reservation and booking workflows.
// Handlers map these onto HTTP status codes.
var (
	// ErrNoSeats is returned when a reservation request names no seats
	// after de-duplication.
	ErrNoSeats = errors.New("no seats requested")

	// ErrShowtimeNotBookable is returned when the target showtime is
	// inactive or has already started.
	ErrShowtimeNotBookable = errors.New("showtime is not open for booking")

	// ErrForbidden is returned when a caller operates on a reservation
	// or booking owned by someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a booking status change
	// does not follow the allowed lifecycle.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingNotCancellable is returned when a booking can no longer
	// be cancelled, e.g. because the showtime already started.
	ErrBookingNotCancellable = errors.New("booking can no longer be cancelled")
)
