package model

import "time"

// Reservation represents a time-boxed, exclusive hold on a set of
// seats pending confirmation.  Holds are created atomically for
// the whole seat set and expire at ExpiresAt; the sweeper releases
// any seats still RESERVED past that point.  The opaque Token is
// returned to the client and is the only handle by which the hold
// can be confirmed or cancelled.
//
// Fields:
//  Token      – opaque 64-char hex token identifying the hold.
//  ShowtimeID – showtime whose seats are held.
//  SeatIDs    – seats covered by this hold (non-empty, deduplicated).
//  HolderID   – user who placed the hold.
//  CreatedAt  – when the hold was placed.
//  ExpiresAt  – when the hold lapses.
type Reservation struct {
	Token      string    // reservations.token
	ShowtimeID uint64    // reservations.showtime_id
	SeatIDs    []uint64  // reservation_seats.seat_id (one row per seat)
	HolderID   uint64    // reservations.holder_id
	CreatedAt  time.Time // reservations.created_at
	ExpiresAt  time.Time // reservations.expires_at
}

// Expired reports whether the hold has lapsed as of now.
func (r Reservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
