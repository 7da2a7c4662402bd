package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking/internal/model"
)

const testShowtime = uint64(7)

// newSeededStore returns a store holding one showtime with seats
// A1..A4 under IDs 1..4.
func newSeededStore() *MemorySeatStore {
	s := NewMemory()
	seats := make([]model.Seat, 0, 4)
	for i := uint64(1); i <= 4; i++ {
		seats = append(seats, model.Seat{
			ID:         i,
			RowLabel:   "A",
			SeatNumber: uint32(i),
			Status:     model.SeatAvailable,
		})
	}
	s.AddShowtime(testShowtime, seats)
	return s
}

func TestTryReserveMarksWholeSet(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, resv)
	assert.Len(t, resv.SeatIDs, 2)
	assert.NotEmpty(t, resv.Token)
	assert.True(t, resv.ExpiresAt.After(time.Now().UTC().Add(9*time.Minute)))

	for _, id := range []uint64{1, 2} {
		seat, ok := s.Seat(id)
		require.True(t, ok)
		assert.Equal(t, model.SeatReserved, seat.Status)
		assert.NotNil(t, seat.ReservedUntil)
		assert.Nil(t, seat.BookingID)
	}
}

func TestTryReserveIsAllOrNothing(t *testing.T) {
	s := newSeededStore()
	_, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)

	// Overlapping request must fail completely: seat 3 stays free.
	_, err = s.TryReserve(context.Background(), testShowtime, []uint64{1, 3}, 43, 10*time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeatConflict))
	var conflict *SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []uint64{1}, conflict.SeatIDs)

	seat, _ := s.Seat(3)
	assert.Equal(t, model.SeatAvailable, seat.Status)
	assert.Nil(t, seat.ReservedUntil)
}

func TestTryReserveUnknownSeatFails(t *testing.T) {
	s := newSeededStore()
	_, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 99}, 42, time.Minute)
	assert.ErrorIs(t, err, ErrSeatNotFound)

	seat, _ := s.Seat(1)
	assert.Equal(t, model.SeatAvailable, seat.Status)
}

func TestTryReserveWrongShowtimeFails(t *testing.T) {
	s := newSeededStore()
	_, err := s.TryReserve(context.Background(), testShowtime+1, []uint64{1}, 42, time.Minute)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestConfirmBookingTransitionsSeats(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)

	booking := &model.Booking{
		Reference:        "ref-1",
		UserID:           42,
		ShowtimeID:       testShowtime,
		Status:           model.BookingBooked,
		TotalAmountCents: 2400,
		BookedAt:         time.Now().UTC(),
	}
	require.NoError(t, s.ConfirmBooking(context.Background(), resv.Token, booking))
	require.NotZero(t, booking.ID)

	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatBooked, seat.Status)
		require.NotNil(t, seat.BookingID)
		assert.Equal(t, booking.ID, *seat.BookingID)
		assert.Nil(t, seat.ReservedUntil)
	}

	stored, ok := s.Booking(booking.ID)
	require.True(t, ok)
	assert.Equal(t, model.BookingBooked, stored.Status)

	// The token is spent: every further use fails.
	_, err = s.GetReservation(context.Background(), resv.Token)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.ErrorIs(t, s.ConfirmBooking(context.Background(), resv.Token, booking), ErrReservationNotFound)
}

func TestConfirmExpiredReservationCreatesNoBooking(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, -time.Minute)
	require.NoError(t, err)

	booking := &model.Booking{Reference: "ref-2", UserID: 42, ShowtimeID: testShowtime, Status: model.BookingBooked, TotalAmountCents: 2400}
	err = s.ConfirmBooking(context.Background(), resv.Token, booking)
	assert.ErrorIs(t, err, ErrReservationExpired)
	assert.Zero(t, booking.ID, "no booking row may exist for unconfirmed seats")

	// Expired seats were released during the attempt.
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Nil(t, seat.BookingID)
		assert.Nil(t, seat.ReservedUntil)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)
	booking := &model.Booking{Reference: "ref-3", UserID: 42, ShowtimeID: testShowtime, Status: model.BookingBooked, TotalAmountCents: 2400}
	require.NoError(t, s.ConfirmBooking(context.Background(), resv.Token, booking))

	require.NoError(t, s.Release(context.Background(), testShowtime, []uint64{1, 2}))
	first := make([]model.Seat, 0, 2)
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		first = append(first, seat)
	}

	// Releasing again must be a no-op, not an error.
	require.NoError(t, s.Release(context.Background(), testShowtime, []uint64{1, 2}))
	for i, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, first[i].Status, seat.Status)
		assert.Nil(t, seat.BookingID)
		assert.Nil(t, seat.ReservedUntil)
	}
}

func TestSweepReleasesExactlyExpiredHolds(t *testing.T) {
	s := newSeededStore()
	expired, err := s.TryReserve(context.Background(), testShowtime, []uint64{1}, 42, 5*time.Minute)
	require.NoError(t, err)
	live, err := s.TryReserve(context.Background(), testShowtime, []uint64{2}, 43, time.Hour)
	require.NoError(t, err)

	// Sweep one minute after the first hold lapsed.
	released, showtimes, err := s.SweepExpired(context.Background(), expired.ExpiresAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Equal(t, []uint64{testShowtime}, showtimes)

	seat1, _ := s.Seat(1)
	assert.Equal(t, model.SeatAvailable, seat1.Status)
	seat2, _ := s.Seat(2)
	assert.Equal(t, model.SeatReserved, seat2.Status)

	_, err = s.GetReservation(context.Background(), expired.Token)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	_, err = s.GetReservation(context.Background(), live.Token)
	assert.NoError(t, err)

	// Nothing left to sweep.
	released, _, err = s.SweepExpired(context.Background(), expired.ExpiresAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestCancelReservationReleasesSeats(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.CancelReservation(context.Background(), resv.Token))
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatAvailable, seat.Status)
	}
	assert.ErrorIs(t, s.CancelReservation(context.Background(), resv.Token), ErrReservationNotFound)
}

// Full lifecycle: hold A1+A2, conflicting hold fails, confirmation
// books both seats, releasing (booking cancelled) frees them again.
func TestReserveConfirmCancelLifecycle(t *testing.T) {
	s := newSeededStore()
	ctx := context.Background()

	resv, err := s.TryReserve(ctx, testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)

	_, err = s.TryReserve(ctx, testShowtime, []uint64{1, 3}, 43, 10*time.Minute)
	assert.ErrorIs(t, err, ErrSeatConflict)
	seat3, _ := s.Seat(3)
	assert.Equal(t, model.SeatAvailable, seat3.Status)

	booking := &model.Booking{Reference: "ref-4", UserID: 42, ShowtimeID: testShowtime, Status: model.BookingBooked, TotalAmountCents: 2400, BookedAt: time.Now().UTC()}
	require.NoError(t, s.ConfirmBooking(ctx, resv.Token, booking))
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatBooked, seat.Status)
	}

	require.NoError(t, s.Release(ctx, testShowtime, []uint64{1, 2}))
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Nil(t, seat.BookingID)
	}
}

// Many goroutines race for the same pair of seats; exactly one may
// win and the rest must observe a conflict with no partial state.
func TestConcurrentTryReserveSingleWinner(t *testing.T) {
	s := newSeededStore()
	const workers = 16

	var wg sync.WaitGroup
	wins := make(chan *model.Reservation, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(holder uint64) {
			defer wg.Done()
			resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, holder, 10*time.Minute)
			if err == nil {
				wins <- resv
				return
			}
			assert.ErrorIs(t, err, ErrSeatConflict)
		}(uint64(100 + i))
	}
	wg.Wait()
	close(wins)

	var winners []*model.Reservation
	for r := range wins {
		winners = append(winners, r)
	}
	require.Len(t, winners, 1)
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatReserved, seat.Status)
	}
	seat3, _ := s.Seat(3)
	assert.Equal(t, model.SeatAvailable, seat3.Status)
}

func TestReleaseBookingFreesSeatsWithStatus(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)
	booking := &model.Booking{Reference: "ref-5", UserID: 42, ShowtimeID: testShowtime, Status: model.BookingBooked, TotalAmountCents: 2400}
	require.NoError(t, s.ConfirmBooking(context.Background(), resv.Token, booking))

	require.NoError(t, s.ReleaseBooking(context.Background(), booking.ID, model.BookingCancelled))
	stored, _ := s.Booking(booking.ID)
	assert.Equal(t, model.BookingCancelled, stored.Status)
	for _, id := range []uint64{1, 2} {
		seat, _ := s.Seat(id)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Nil(t, seat.BookingID)
	}

	assert.ErrorIs(t, s.ReleaseBooking(context.Background(), 9999, model.BookingCancelled), ErrBookingNotFound)
}

func TestReleaseBookingRejectsRepeatedRelease(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1}, 42, 10*time.Minute)
	require.NoError(t, err)
	booking := &model.Booking{Reference: "ref-6", UserID: 42, ShowtimeID: testShowtime, Status: model.BookingBooked, TotalAmountCents: 1200}
	require.NoError(t, s.ConfirmBooking(context.Background(), resv.Token, booking))

	require.NoError(t, s.ReleaseBooking(context.Background(), booking.ID, model.BookingCancelled))

	// The booking already left BOOKED, so a second transition must be
	// refused instead of silently applying again.
	err = s.ReleaseBooking(context.Background(), booking.ID, model.BookingFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	stored, _ := s.Booking(booking.ID)
	assert.Equal(t, model.BookingCancelled, stored.Status)
}

func TestLoadHydratesSeatMapsByShowtime(t *testing.T) {
	s := NewMemory()
	s.Load([]model.Seat{
		{ID: 1, ShowtimeID: 7, RowLabel: "A", SeatNumber: 1, Status: model.SeatAvailable},
		{ID: 2, ShowtimeID: 7, RowLabel: "A", SeatNumber: 2, Status: model.SeatAvailable},
		{ID: 3, ShowtimeID: 9, RowLabel: "B", SeatNumber: 1, Status: model.SeatAvailable},
	})

	_, err := s.TryReserve(context.Background(), 7, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)
	_, err = s.TryReserve(context.Background(), 9, []uint64{3}, 42, 10*time.Minute)
	require.NoError(t, err)

	// Loaded seats stay scoped to their own showtime.
	_, err = s.TryReserve(context.Background(), 9, []uint64{1}, 42, 10*time.Minute)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestRemoveShowtimeDropsSeatsAndHolds(t *testing.T) {
	s := newSeededStore()
	resv, err := s.TryReserve(context.Background(), testShowtime, []uint64{1, 2}, 42, 10*time.Minute)
	require.NoError(t, err)

	s.RemoveShowtime(testShowtime)

	_, err = s.TryReserve(context.Background(), testShowtime, []uint64{3}, 42, 10*time.Minute)
	assert.ErrorIs(t, err, ErrSeatNotFound)
	_, err = s.GetReservation(context.Background(), resv.Token)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []uint64{3, 1, 2}, Dedupe([]uint64{3, 1, 3, 0, 2, 1}))
	assert.Empty(t, Dedupe([]uint64{0, 0}))
}
