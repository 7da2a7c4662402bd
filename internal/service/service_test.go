package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/store"
)

/* ==================== MOCKS ==================== */

type mockShowtimes struct {
	mock.Mock
}

func (m *mockShowtimes) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Showtime), args.Error(1)
}

func (m *mockShowtimes) RecomputeAvailableSeats(ctx context.Context, showtimeID uint64) error {
	args := m.Called(ctx, showtimeID)
	return args.Error(0)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookings) UpdateStatus(ctx context.Context, id uint64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

/* ==================== FIXTURES ==================== */

const (
	showtimeID = uint64(7)
	customerID = uint64(42)
)

// seededStore returns a memory seat store with seats A1..A4 (IDs 1..4)
// for the test showtime.
func seededStore() *store.MemorySeatStore {
	s := store.NewMemory()
	seats := make([]model.Seat, 0, 4)
	for i := uint64(1); i <= 4; i++ {
		seats = append(seats, model.Seat{
			ID:         i,
			RowLabel:   "A",
			SeatNumber: uint32(i),
			Status:     model.SeatAvailable,
		})
	}
	s.AddShowtime(showtimeID, seats)
	return s
}

func activeShowtime() *model.Showtime {
	now := time.Now().UTC()
	return &model.Showtime{
		ID:             showtimeID,
		StartsAt:       now.Add(2 * time.Hour),
		EndsAt:         now.Add(4 * time.Hour),
		BasePriceCents: 1500,
		Status:         model.ShowtimeActive,
	}
}

func newManager(seats *store.MemorySeatStore, showtimes *mockShowtimes) *ReservationManager {
	return NewReservationManager(seats, showtimes, 10*time.Minute)
}

func newWorkflow(seats *store.MemorySeatStore, showtimes *mockShowtimes, bookings *mockBookings) *BookingWorkflow {
	return NewBookingWorkflow(seats, showtimes, bookings, nil, nil, nil)
}

/* ==================== RESERVATION ==================== */

func TestReserveSeatsHoldsWholeSet(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1, 2, 2}, customerID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, res.SeatIDs)
	assert.Equal(t, customerID, res.HolderID)

	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatReserved, got.Status)
	showtimes.AssertExpectations(t)
}

func TestReserveSeatsRejectsEmptySet(t *testing.T) {
	m := newManager(seededStore(), new(mockShowtimes))
	_, err := m.ReserveSeats(context.Background(), showtimeID, nil, customerID)
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestReserveSeatsRejectsStartedShowtime(t *testing.T) {
	st := activeShowtime()
	st.StartsAt = time.Now().UTC().Add(-time.Minute)
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(st, nil)

	m := newManager(seededStore(), showtimes)
	_, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1}, customerID)
	assert.ErrorIs(t, err, ErrShowtimeNotBookable)
}

func TestReserveSeatsSurfacesConflicts(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	_, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1, 2}, customerID)
	require.NoError(t, err)

	_, err = m.ReserveSeats(context.Background(), showtimeID, []uint64{2, 3}, uint64(99))
	require.ErrorIs(t, err, store.ErrSeatConflict)
	var conflict *store.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []uint64{2}, conflict.SeatIDs)

	// the free seat of the losing request stays free
	got, _ := seats.Seat(3)
	assert.Equal(t, model.SeatAvailable, got.Status)
}

func TestCancelReservationRequiresHolder(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1}, customerID)
	require.NoError(t, err)

	err = m.CancelReservation(context.Background(), res.Token, uint64(99))
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, m.CancelReservation(context.Background(), res.Token, customerID))
	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatAvailable, got.Status)
}

/* ==================== CONFIRM ==================== */

func TestConfirmBookingComputesTotal(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1, 2}, customerID)
	require.NoError(t, err)

	w := newWorkflow(seats, showtimes, new(mockBookings))
	b, err := w.ConfirmBooking(context.Background(), res.Token, customerID)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, model.BookingBooked, b.Status)
	assert.Equal(t, uint32(3000), b.TotalAmountCents)

	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatBooked, got.Status)
	require.NotNil(t, got.BookingID)
	assert.Equal(t, b.ID, *got.BookingID)
}

func TestConfirmBookingRejectsWrongUser(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1}, customerID)
	require.NoError(t, err)

	w := newWorkflow(seats, showtimes, new(mockBookings))
	_, err = w.ConfirmBooking(context.Background(), res.Token, uint64(99))
	assert.ErrorIs(t, err, ErrForbidden)

	// the hold survives a stranger's confirm attempt
	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatReserved, got.Status)
}

func TestConfirmExpiredHoldCreatesNoBooking(t *testing.T) {
	seats := seededStore()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(activeShowtime(), nil)

	res, err := seats.TryReserve(context.Background(), showtimeID, []uint64{1}, customerID, -time.Minute)
	require.NoError(t, err)

	w := newWorkflow(seats, showtimes, new(mockBookings))
	b, err := w.ConfirmBooking(context.Background(), res.Token, customerID)
	assert.ErrorIs(t, err, store.ErrReservationExpired)
	assert.Nil(t, b)

	// the stale hold stays until the sweeper reclaims it
	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatReserved, got.Status)
	_, ok := seats.Booking(1)
	assert.False(t, ok)
}

/* ==================== CANCEL / STATUS ==================== */

func TestCancelBookingReleasesSeats(t *testing.T) {
	seats := seededStore()
	st := activeShowtime()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(st, nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1, 2}, customerID)
	require.NoError(t, err)

	bookings := new(mockBookings)
	w := newWorkflow(seats, showtimes, bookings)
	b, err := w.ConfirmBooking(context.Background(), res.Token, customerID)
	require.NoError(t, err)

	stored, ok := seats.Booking(b.ID)
	require.True(t, ok)
	bookings.On("GetByID", mock.Anything, b.ID).Return(&stored, nil)

	require.NoError(t, w.CancelBooking(context.Background(), b.ID, customerID))

	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatAvailable, got.Status)
	assert.Nil(t, got.BookingID)
	after, _ := seats.Booking(b.ID)
	assert.Equal(t, model.BookingCancelled, after.Status)
}

func TestCancelBookingAfterShowtimeStarts(t *testing.T) {
	seats := seededStore()
	st := activeShowtime()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(st, nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1}, customerID)
	require.NoError(t, err)

	bookings := new(mockBookings)
	w := newWorkflow(seats, showtimes, bookings)
	b, err := w.ConfirmBooking(context.Background(), res.Token, customerID)
	require.NoError(t, err)

	stored, _ := seats.Booking(b.ID)
	bookings.On("GetByID", mock.Anything, b.ID).Return(&stored, nil)

	st.StartsAt = time.Now().UTC().Add(-time.Minute) // screening began
	err = w.CancelBooking(context.Background(), b.ID, customerID)
	assert.ErrorIs(t, err, ErrBookingNotCancellable)

	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatBooked, got.Status)
}

func TestUpdateBookingStatusRejectsBadTransition(t *testing.T) {
	bookings := new(mockBookings)
	bookings.On("GetByID", mock.Anything, uint64(5)).
		Return(&model.Booking{ID: 5, Status: model.BookingCancelled}, nil)

	w := newWorkflow(seededStore(), new(mockShowtimes), bookings)
	err := w.UpdateBookingStatus(context.Background(), 5, model.BookingBooked)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateBookingStatusReleasesSeatsOnCancel(t *testing.T) {
	seats := seededStore()
	st := activeShowtime()
	showtimes := new(mockShowtimes)
	showtimes.On("GetByID", mock.Anything, showtimeID).Return(st, nil)
	showtimes.On("RecomputeAvailableSeats", mock.Anything, showtimeID).Return(nil)

	m := newManager(seats, showtimes)
	res, err := m.ReserveSeats(context.Background(), showtimeID, []uint64{1, 2}, customerID)
	require.NoError(t, err)

	bookings := new(mockBookings)
	w := newWorkflow(seats, showtimes, bookings)
	b, err := w.ConfirmBooking(context.Background(), res.Token, customerID)
	require.NoError(t, err)

	stored, _ := seats.Booking(b.ID)
	bookings.On("GetByID", mock.Anything, b.ID).Return(&stored, nil)

	require.NoError(t, w.UpdateBookingStatus(context.Background(), b.ID, model.BookingCancelled))
	got, _ := seats.Seat(2)
	assert.Equal(t, model.SeatAvailable, got.Status)
}
