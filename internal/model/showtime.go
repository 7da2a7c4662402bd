package model

import "time"

// Showtime status values.  A showtime is ACTIVE until its start
// time passes, after which the sweeper flips it to INACTIVE.
const (
	ShowtimeActive   = "ACTIVE"
	ShowtimeInactive = "INACTIVE"
)

// ShowtimeStatusFor derives the status a showtime should carry at
// the given instant from its start time.
func ShowtimeStatusFor(startsAt, now time.Time) string {
	if startsAt.After(now) {
		return ShowtimeActive
	}
	return ShowtimeInactive
}

// Showtime represents a scheduled screening of a movie on a
// particular screen.  A full seat map is generated from the
// screen layout when the showtime is created, and AvailableSeats
// is always recomputed from the seat table, never incremented or
// decremented in place.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  ScreenID       – screen hosting the screening.
//  StartsAt       – when the screening begins.
//  EndsAt         – when the screening ends (must be after StartsAt).
//  BasePriceCents – price in cents for each seat of this showtime.
//  TotalSeats     – number of seats generated for this showtime.
//  AvailableSeats – count of seats currently AVAILABLE.
//  Status         – ACTIVE or INACTIVE, derived from StartsAt.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Showtime struct {
	ID             uint64    // showtimes.id
	MovieID        uint64    // showtimes.movie_id
	ScreenID       uint64    // showtimes.screen_id
	StartsAt       time.Time // showtimes.starts_at
	EndsAt         time.Time // showtimes.ends_at
	BasePriceCents uint32    // showtimes.base_price_cents
	TotalSeats     uint32    // showtimes.total_seats
	AvailableSeats uint32    // showtimes.available_seats
	Status         string    // showtimes.status
	CreatedAt      time.Time // showtimes.created_at
	UpdatedAt      time.Time // showtimes.updated_at
}
