// Package service implements the reservation and booking workflows on
// top of the seat store. Handlers stay thin: they parse requests,
// call a workflow method and translate its errors.
package service

import (
	"context"
	"log"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/store"
)

// ShowtimeReader is the slice of the showtime repository the workflows
// need: lookups plus the available-seat counter refresh.
type ShowtimeReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	RecomputeAvailableSeats(ctx context.Context, showtimeID uint64) error
}

// ReservationManager places and cancels temporary seat holds. All seat
// state changes go through the seat store; the manager adds the
// business checks around them.
type ReservationManager struct {
	store     store.SeatStore
	showtimes ShowtimeReader
	ttl       time.Duration
}

// NewReservationManager constructs a ReservationManager. ttl is how
// long a hold lasts before the sweeper may reclaim it.
func NewReservationManager(st store.SeatStore, showtimes ShowtimeReader, ttl time.Duration) *ReservationManager {
	return &ReservationManager{store: st, showtimes: showtimes, ttl: ttl}
}

// TTL returns the hold duration applied to new reservations.
func (m *ReservationManager) TTL() time.Duration { return m.ttl }

// ReserveSeats places a hold on the given seats of a showtime. The
// seat list is de-duplicated first; the hold succeeds for the whole
// set or not at all. A *store.SeatConflictError names the seats that
// were taken when the hold fails.
func (m *ReservationManager) ReserveSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, holderID uint64) (*model.Reservation, error) {
	seatIDs = store.Dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	st, err := m.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if st.Status != model.ShowtimeActive || !st.StartsAt.After(time.Now().UTC()) {
		return nil, ErrShowtimeNotBookable
	}

	res, err := m.store.TryReserve(ctx, showtimeID, seatIDs, holderID, m.ttl)
	if err != nil {
		return nil, err
	}
	m.refreshCounter(ctx, showtimeID)
	return res, nil
}

// CancelReservation releases a hold before it expires. Only the holder
// may cancel; a hold that already expired is treated as gone.
func (m *ReservationManager) CancelReservation(ctx context.Context, token string, holderID uint64) error {
	res, err := m.store.GetReservation(ctx, token)
	if err != nil {
		return err
	}
	if res.HolderID != holderID {
		return ErrForbidden
	}
	if err := m.store.CancelReservation(ctx, token); err != nil {
		return err
	}
	m.refreshCounter(ctx, res.ShowtimeID)
	return nil
}

// refreshCounter updates the denormalized available_seats counter.
// Failures are logged and ignored; the sweeper repairs the counter on
// its next pass.
func (m *ReservationManager) refreshCounter(ctx context.Context, showtimeID uint64) {
	if err := m.showtimes.RecomputeAvailableSeats(ctx, showtimeID); err != nil {
		log.Printf("reservation: recompute available seats for showtime %d: %v", showtimeID, err)
	}
}
