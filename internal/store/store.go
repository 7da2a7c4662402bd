// Package store owns every seat status transition.  All mutation of
// the per-showtime seat maps goes through a SeatStore; repositories
// and handlers only ever read seat rows.  Multi-seat operations are
// atomic as a set: either every seat in the request transitions or
// none do.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// ErrReservationNotFound is returned when a reservation token does
// not reference an active hold.  Cancelled and already-confirmed
// tokens fail the same way; a stale token never silently succeeds.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrReservationExpired is returned when a hold's TTL elapsed before
// it could be confirmed.  The seats have been (or will be) swept back
// to AVAILABLE.
var ErrReservationExpired = errors.New("reservation expired")

// ErrSeatConflict is the sentinel matched by errors.Is when one or
// more requested seats were not AVAILABLE.  The concrete error is a
// *SeatConflictError carrying the offending seat IDs.
var ErrSeatConflict = errors.New("seat has been reserved")

// ErrSeatNotFound is returned when a requested seat does not belong
// to the given showtime.
var ErrSeatNotFound = errors.New("seat not found")

// ErrBookingNotFound is returned by ReleaseBooking when the booking
// does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvalidTransition is returned by ReleaseBooking when the
// booking's current status, re-read under the row lock, no longer
// allows the requested transition.  Concurrent transitions on the
// same booking race to the lock; the loser gets this error.
var ErrInvalidTransition = errors.New("booking status transition not allowed")

// SeatConflictError reports which seats blocked an all-or-nothing
// reservation.  Callers should re-fetch the seat map and re-select.
type SeatConflictError struct {
	SeatIDs []uint64 // seats that were not AVAILABLE at request time
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat has been reserved: %d seat(s) unavailable", len(e.SeatIDs))
}

// Is makes errors.Is(err, ErrSeatConflict) work for the typed error.
func (e *SeatConflictError) Is(target error) bool { return target == ErrSeatConflict }

// SeatStore is the sole authority over seat status transitions for
// all showtimes.  Implementations must guarantee that transitions on
// a given seat are mutually exclusive and that operations touching
// multiple seats succeed or fail as one unit.
type SeatStore interface {
	// TryReserve atomically transitions every seat in seatIDs from
	// AVAILABLE to RESERVED and records a hold expiring after ttl.
	// If any seat is missing or not AVAILABLE, no seat changes state
	// and the error is ErrSeatNotFound or a *SeatConflictError.
	TryReserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, holderID uint64, ttl time.Duration) (*model.Reservation, error)

	// GetReservation returns the active hold for a token, or
	// ErrReservationNotFound / ErrReservationExpired.
	GetReservation(ctx context.Context, token string) (*model.Reservation, error)

	// ConfirmBooking transitions every seat of the hold from RESERVED
	// to BOOKED, persists the booking record in the same unit of work
	// and invalidates the token.  The store assigns booking.ID.  When
	// the hold is stale nothing is persisted: no booking row is ever
	// created whose seats did not transition.
	ConfirmBooking(ctx context.Context, token string, booking *model.Booking) error

	// CancelReservation releases the seats of an active hold and
	// invalidates its token.
	CancelReservation(ctx context.Context, token string) error

	// ReleaseBooking atomically sets the booking's status to
	// newStatus and returns its seats to AVAILABLE, in one unit of
	// work.  Intended for CANCELLED and FAILED; a booking can never
	// end up in a released status while its seats stay BOOKED.  The
	// transition is re-validated against the booking's locked status,
	// so a concurrent transition fails with ErrInvalidTransition
	// instead of applying twice.
	ReleaseBooking(ctx context.Context, bookingID uint64, newStatus string) error

	// Release transitions seats from RESERVED or BOOKED back to
	// AVAILABLE, clearing booking_id and reserved_until.  Releasing a
	// seat that is already AVAILABLE is a no-op, not an error.
	Release(ctx context.Context, showtimeID uint64, seatIDs []uint64) error

	// SweepExpired releases every RESERVED seat whose hold lapsed at
	// or before now and drops the lapsed reservations.  It returns
	// the number of seats released and the showtimes touched so the
	// caller can recompute their available counts.
	SweepExpired(ctx context.Context, now time.Time) (released int, showtimeIDs []uint64, err error)
}

// Seeder is implemented by stores that keep seat maps in process
// memory and must be told when a showtime's seat map appears or
// disappears.  The MySQL store reads the seats table directly and
// does not implement it.
type Seeder interface {
	AddShowtime(showtimeID uint64, seats []model.Seat)
	RemoveShowtime(showtimeID uint64)
}

// NewToken returns a cryptographically random 64-character hex
// reservation token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Dedupe returns seatIDs with zeroes and duplicates removed,
// preserving first-seen order.
func Dedupe(seatIDs []uint64) []uint64 {
	out := make([]uint64, 0, len(seatIDs))
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
