package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.  Creating and
// deleting a showtime also touches its seat map, so those paths
// expose ...Tx variants and the repo hands out its DB for callers
// that need to span repositories in one transaction.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

const showtimeCols = `id, movie_id, screen_id, starts_at, ends_at, base_price_cents, total_seats, available_seats, status, created_at, updated_at`

func scanShowtime(row interface{ Scan(...interface{}) error }) (*model.Showtime, error) {
	var s model.Showtime
	err := row.Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents,
		&s.TotalSeats, &s.AvailableSeats, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts a showtime within the caller's transaction and
// assigns the generated ID.  The caller generates the seat map in
// the same transaction so a failure leaves neither behind.
func (r *ShowtimeRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Showtime) error {
	s.Status = model.ShowtimeStatusFor(s.StartsAt, time.Now().UTC())
	const q = `INSERT INTO showtimes (movie_id, screen_id, starts_at, ends_at, base_price_cents, total_seats, available_seats, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.ScreenID, s.StartsAt, s.EndsAt,
		s.BasePriceCents, s.TotalSeats, s.AvailableSeats, s.Status)
	if err != nil {
		if isFKError(err) {
			return ErrScreenNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a showtime or ErrShowtimeNotFound.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	s, err := scanShowtime(r.db.QueryRowContext(ctx, `SELECT `+showtimeCols+` FROM showtimes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowtimeNotFound
	}
	return s, err
}

// ListByMovie returns upcoming showtimes of a movie ordered by start
// time.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+showtimeCols+` FROM showtimes WHERE movie_id = ? AND starts_at > UTC_TIMESTAMP() ORDER BY starts_at`,
		movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showtime
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Update reschedules or reprices a showtime.  Status is re-derived
// from the new start time; seat counts are untouched.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	s.Status = model.ShowtimeStatusFor(s.StartsAt, time.Now().UTC())
	const q = `UPDATE showtimes
	           SET starts_at = ?, ends_at = ?, base_price_cents = ?, status = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, s.StartsAt, s.EndsAt, s.BasePriceCents, s.Status, s.ID)
	return err
}

// HasConfirmedBookings reports whether any booking of this showtime
// is in BOOKED status.  Such showtimes must not be deleted.
func (r *ShowtimeRepo) HasConfirmedBookings(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = ? AND status = ?`,
		id, model.BookingBooked).Scan(&n)
	return n > 0, err
}

// DeleteTx removes a showtime and its seat map within the caller's
// transaction.  Seats must be deleted first (FK restrict).
func (r *ShowtimeRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE showtime_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		if isFKError(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowtimeNotFound
	}
	return nil
}

// ListStatusMismatched returns showtimes whose stored status
// disagrees with their start time as of now.
func (r *ShowtimeRepo) ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Showtime, error) {
	const q = `SELECT ` + showtimeCols + ` FROM showtimes
	           WHERE (status = ? AND starts_at <= ?)
	              OR (status = ? AND starts_at > ?)`
	rows, err := r.db.QueryContext(ctx, q,
		model.ShowtimeActive, now,
		model.ShowtimeInactive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showtime
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateStatus persists a single showtime's derived status.
func (r *ShowtimeRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE showtimes SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	return err
}

// RecomputeAvailableSeats derives available_seats from the seat
// table.  The count is never incremented in place, so it cannot
// drift from the seats' actual statuses.
func (r *ShowtimeRepo) RecomputeAvailableSeats(ctx context.Context, id uint64) error {
	const q = `UPDATE showtimes
	           SET available_seats = (SELECT COUNT(*) FROM seats WHERE showtime_id = ? AND status = ?),
	               updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id, model.SeatAvailable, id)
	return err
}

// FindOverlapping returns showtimes on a screen whose time window
// intersects [startsAt, endsAt).  Used to refuse double-booking a
// screen.
func (r *ShowtimeRepo) FindOverlapping(ctx context.Context, screenID uint64, startsAt, endsAt time.Time) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+showtimeCols+` FROM showtimes
		 WHERE screen_id = ? AND starts_at < ? AND ends_at > ?`,
		screenID, endsAt, startsAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showtime
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
