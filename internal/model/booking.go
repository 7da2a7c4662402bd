package model

import "time"

// Booking status values.  The workflow permits RESERVED -> BOOKED,
// RESERVED -> FAILED and BOOKED -> CANCELLED; no transition ever
// re-enters RESERVED.  Only CANCELLED and FAILED release seats.
const (
	BookingReserved  = "RESERVED"
	BookingBooked    = "BOOKED"
	BookingCancelled = "CANCELLED"
	BookingFailed    = "FAILED"
)

// Booking is the durable record of a completed (or explicitly
// failed/cancelled) seat purchase.  Bookings are never deleted;
// cancellation and failure are status transitions so the audit
// trail survives.  The seats owned by a booking are exactly the
// seat rows whose booking_id equals its ID.
//
// Fields:
//  ID               – primary key identifier.
//  Reference        – public UUID printed on tickets and QR codes.
//  UserID           – user who owns the booking.
//  ShowtimeID       – showtime the seats belong to.
//  Status           – RESERVED, BOOKED, CANCELLED or FAILED.
//  TotalAmountCents – total price in cents across all seats.
//  BookedAt         – when the booking was confirmed.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64    // bookings.id
	Reference        string    // bookings.reference
	UserID           uint64    // bookings.user_id
	ShowtimeID       uint64    // bookings.showtime_id
	Status           string    // bookings.status
	TotalAmountCents uint32    // bookings.total_amount_cents
	BookedAt         time.Time // bookings.booked_at
	CreatedAt        time.Time // bookings.created_at
	UpdatedAt        time.Time // bookings.updated_at
}

// BookingSeat links a booking to one purchased seat.  Together the
// rows for a booking form the full seat set of the purchase.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – reference to the booking.
//  ShowtimeID – showtime in which the seat is booked.
//  SeatID     – seat that has been purchased.
//  PriceCents – price paid for this seat in cents.
//  CreatedAt  – creation timestamp.
type BookingSeat struct {
	ID         uint64    // booking_seats.id
	BookingID  uint64    // booking_seats.booking_id
	ShowtimeID uint64    // booking_seats.showtime_id
	SeatID     uint64    // booking_seats.seat_id
	PriceCents uint32    // booking_seats.price_cents
	CreatedAt  time.Time // booking_seats.created_at
}

// CanTransition reports whether the booking state machine permits
// moving from one status to another.  RESERVED may become BOOKED or
// FAILED, BOOKED may become CANCELLED; nothing re-enters RESERVED.
func CanTransition(from, to string) bool {
	switch from {
	case BookingReserved:
		return to == BookingBooked || to == BookingFailed
	case BookingBooked:
		return to == BookingCancelled
	}
	return false
}

// SeatsReleased reports whether a transition into the given status
// must return the booking's seats to AVAILABLE.  Only CANCELLED and
// FAILED release seats; every other target leaves the assignment
// untouched.
func SeatsReleased(status string) bool {
	return status == BookingCancelled || status == BookingFailed
}
