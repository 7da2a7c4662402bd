package model

import (
	"strconv"
	"time"
)

// Seat status values.  Transitions are owned exclusively by the
// seat store: AVAILABLE -> RESERVED (hold), RESERVED -> BOOKED
// (confirmation), RESERVED|BOOKED -> AVAILABLE (release/expiry).
// UNAVAILABLE marks seats taken out of service; they never enter
// the reservation flow.
const (
	SeatAvailable   = "AVAILABLE"
	SeatReserved    = "RESERVED"
	SeatBooked      = "BOOKED"
	SeatUnavailable = "UNAVAILABLE"
)

// Seat represents one seat of one showtime's seat map.  Identity
// (showtime, row, number) is immutable; only Status and the two
// status-coupled fields change.  BookingID is set exactly when the
// seat is BOOKED and ReservedUntil exactly when it is RESERVED; the
// store maintains this consistency on every transition.
//
// Fields:
//  ID            – primary key identifier.
//  ShowtimeID    – showtime to which this seat belongs.
//  RowLabel      – letter designating the row (e.g. "A").
//  SeatNumber    – number of the seat within the row.
//  Status        – AVAILABLE, RESERVED, BOOKED or UNAVAILABLE.
//  BookingID     – booking that owns this seat (nil unless BOOKED).
//  ReservedUntil – hold expiry (nil unless RESERVED).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Seat struct {
	ID            uint64     // seats.id
	ShowtimeID    uint64     // seats.showtime_id
	RowLabel      string     // seats.row_label
	SeatNumber    uint32     // seats.seat_number
	Status        string     // seats.status
	BookingID     *uint64    // seats.booking_id (nullable)
	ReservedUntil *time.Time // seats.reserved_until (nullable)
	CreatedAt     time.Time  // seats.created_at
	UpdatedAt     time.Time  // seats.updated_at
}

// Label returns the human-readable seat label, e.g. "A12".  Used
// in confirmation emails and seat-map responses.
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
