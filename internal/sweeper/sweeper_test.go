package sweeper

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

type mockMovieRepo struct {
	mock.Mock
}

func (m *mockMovieRepo) ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Movie, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Movie), args.Error(1)
}

func (m *mockMovieRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockShowtimeRepo struct {
	mock.Mock
}

func (m *mockShowtimeRepo) ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Showtime, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Showtime), args.Error(1)
}

func (m *mockShowtimeRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockShowtimeRepo) RecomputeAvailableSeats(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func seededStore(t *testing.T) (*store.MemorySeatStore, string) {
	t.Helper()
	s := store.NewMemory()
	s.AddShowtime(7, []model.Seat{
		{ID: 1, RowLabel: "A", SeatNumber: 1, Status: model.SeatAvailable},
		{ID: 2, RowLabel: "A", SeatNumber: 2, Status: model.SeatAvailable},
	})
	resv, err := s.TryReserve(context.Background(), 7, []uint64{1, 2}, 42, -time.Minute)
	require.NoError(t, err)
	return s, resv.Token
}

func TestRunOnceReclaimsExpiredHolds(t *testing.T) {
	seats, _ := seededStore(t)
	movies := new(mockMovieRepo)
	movies.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Movie{}, nil)
	shows := new(mockShowtimeRepo)
	shows.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Showtime{}, nil)
	shows.On("RecomputeAvailableSeats", mock.Anything, uint64(7)).Return(nil)

	sw := New(seats, movies, shows, time.Minute)
	sw.RunOnce(context.Background())

	got, _ := seats.Seat(1)
	assert.Equal(t, model.SeatAvailable, got.Status)
	shows.AssertCalled(t, "RecomputeAvailableSeats", mock.Anything, uint64(7))
}

func TestRunOnceFixesDriftedStatuses(t *testing.T) {
	now := time.Now().UTC()
	movies := new(mockMovieRepo)
	movies.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Movie{
		{ID: 3, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour), Status: model.MovieRunning},
	}, nil)
	movies.On("UpdateStatus", mock.Anything, uint64(3), model.MovieNotRunning).Return(nil)

	shows := new(mockShowtimeRepo)
	shows.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Showtime{
		{ID: 9, StartsAt: now.Add(-time.Hour), Status: model.ShowtimeActive},
	}, nil)
	shows.On("UpdateStatus", mock.Anything, uint64(9), model.ShowtimeInactive).Return(nil)

	sw := New(store.NewMemory(), movies, shows, time.Minute)
	sw.RunOnce(context.Background())

	movies.AssertExpectations(t)
	shows.AssertExpectations(t)
}

func TestRunOnceContinuesPastItemFailures(t *testing.T) {
	now := time.Now().UTC()
	movies := new(mockMovieRepo)
	movies.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Movie{
		{ID: 1, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Status: model.MovieNotRunning},
		{ID: 2, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Status: model.MovieNotRunning},
	}, nil)
	movies.On("UpdateStatus", mock.Anything, uint64(1), model.MovieRunning).Return(errors.New("deadlock"))
	movies.On("UpdateStatus", mock.Anything, uint64(2), model.MovieRunning).Return(nil)

	shows := new(mockShowtimeRepo)
	shows.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Showtime{}, nil)

	sw := New(store.NewMemory(), movies, shows, time.Minute)
	sw.RunOnce(context.Background())

	movies.AssertExpectations(t)
}

func TestStartStopRunsImmediatePass(t *testing.T) {
	seats, _ := seededStore(t)
	movies := new(mockMovieRepo)
	movies.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Movie{}, nil)
	shows := new(mockShowtimeRepo)
	shows.On("ListStatusMismatched", mock.Anything, mock.Anything).Return([]model.Showtime{}, nil)
	shows.On("RecomputeAvailableSeats", mock.Anything, uint64(7)).Return(nil)

	sw := New(seats, movies, shows, time.Hour)
	sw.Start()
	sw.Stop()

	got, _ := seats.Seat(2)
	assert.Equal(t, model.SeatAvailable, got.Status)
}
