// Package sweeper runs the periodic background pass that reclaims
// expired seat holds and keeps derived status columns honest.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/store"
)

// MovieStatusRepo is the slice of the movie repository the sweeper
// needs to repair RUNNING/NOT_RUNNING drift.
type MovieStatusRepo interface {
	ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Movie, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

// ShowtimeStatusRepo is the slice of the showtime repository the
// sweeper needs to repair ACTIVE/INACTIVE drift and seat counters.
type ShowtimeStatusRepo interface {
	ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Showtime, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	RecomputeAvailableSeats(ctx context.Context, id uint64) error
}

// Sweeper owns the background goroutine. A single goroutine consumes
// the ticker, so passes never overlap; a pass that outlasts the
// interval simply delays the next one.
type Sweeper struct {
	store     store.SeatStore
	movies    MovieStatusRepo
	showtimes ShowtimeStatusRepo
	interval  time.Duration

	stop chan struct{}
	done chan struct{}
}

// New constructs a Sweeper that runs every interval once started.
func New(st store.SeatStore, movies MovieStatusRepo, showtimes ShowtimeStatusRepo, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:     st,
		movies:    movies,
		showtimes: showtimes,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background loop. The first pass runs immediately
// so a restart repairs stale state without waiting a full interval.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(context.Background())
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.RunOnce(context.Background())
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight pass, if
// any, to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// RunOnce executes a single sweep pass. Each item is handled
// independently; one failing row is logged and skipped so the rest of
// the pass still runs.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := time.Now().UTC()

	released, touched, err := s.store.SweepExpired(ctx, now)
	if err != nil {
		log.Printf("sweeper: sweep expired holds: %v", err)
	} else if released > 0 {
		log.Printf("sweeper: released %d expired seat holds across %d showtimes", released, len(touched))
	}
	for _, id := range touched {
		if err := s.showtimes.RecomputeAvailableSeats(ctx, id); err != nil {
			log.Printf("sweeper: recompute available seats for showtime %d: %v", id, err)
		}
	}

	s.fixMovieStatuses(ctx, now)
	s.fixShowtimeStatuses(ctx, now)
}

func (s *Sweeper) fixMovieStatuses(ctx context.Context, now time.Time) {
	movies, err := s.movies.ListStatusMismatched(ctx, now)
	if err != nil {
		log.Printf("sweeper: list mismatched movies: %v", err)
		return
	}
	for _, m := range movies {
		want := model.MovieStatusFor(m.StartDate, m.EndDate, now)
		if err := s.movies.UpdateStatus(ctx, m.ID, want); err != nil {
			log.Printf("sweeper: update movie %d status to %s: %v", m.ID, want, err)
			continue
		}
		log.Printf("sweeper: movie %d status -> %s", m.ID, want)
	}
}

func (s *Sweeper) fixShowtimeStatuses(ctx context.Context, now time.Time) {
	shows, err := s.showtimes.ListStatusMismatched(ctx, now)
	if err != nil {
		log.Printf("sweeper: list mismatched showtimes: %v", err)
		return
	}
	for _, st := range shows {
		want := model.ShowtimeStatusFor(st.StartsAt, now)
		if err := s.showtimes.UpdateStatus(ctx, st.ID, want); err != nil {
			log.Printf("sweeper: update showtime %d status to %s: %v", st.ID, want, err)
			continue
		}
		log.Printf("sweeper: showtime %d status -> %s", st.ID, want)
	}
}
