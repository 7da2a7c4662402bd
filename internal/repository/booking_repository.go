package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// BookingRepo provides read access and status updates for bookings.
// Creation happens inside the seat store's confirm transaction, and
// the releasing transitions (CANCELLED/FAILED) go through the store
// as well; what remains here are lookups, listings and the
// non-releasing status updates.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, reference, user_id, showtime_id, status, total_amount_cents, booked_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.ShowtimeID, &b.Status,
		&b.TotalAmountCents, &b.BookedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID retrieves a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatus sets a booking's status without touching its seats.
// Releasing transitions (CANCELLED/FAILED) must not use this method;
// they go through the seat store so seats and status move together.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// BookingDetail is the listing shape returned to clients: the
// booking joined with its showtime, movie, theatre and seats.
type BookingDetail struct {
	ID               uint64 `json:"id"`
	Reference        string `json:"reference"`
	ShowtimeID       uint64 `json:"showtime_id"`
	Status           string `json:"status"`
	TotalAmountCents uint32 `json:"total_amount_cents"`
	BookedAt         time.Time `json:"booked_at"`
	MovieTitle       string    `json:"movie_title"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	ScreenName       string `json:"screen_name"`
	TheatreName      string `json:"theatre_name"`
	TheatreCity      string `json:"theatre_city"`
	Seats            []struct {
		SeatID     uint64 `json:"seat_id"`
		RowLabel   string `json:"row_label"`
		SeatNumber uint32 `json:"seat_number"`
	} `json:"seats"`
}

const bookingDetailQuery = `
	SELECT b.id, b.reference, b.showtime_id, b.status, b.total_amount_cents, b.booked_at,
	       m.title, st.starts_at, st.ends_at, sc.name, t.name, t.city
	FROM bookings b
	JOIN showtimes st ON st.id = b.showtime_id
	JOIN movies m     ON m.id = st.movie_id
	JOIN screens sc   ON sc.id = st.screen_id
	JOIN theatres t   ON t.id = sc.theatre_id`

// ListByUser returns all bookings of a user, newest first, with
// their seats attached.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailQuery+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BookingDetail{}
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.Reference, &d.ShowtimeID, &d.Status, &d.TotalAmountCents,
			&d.BookedAt, &d.MovieTitle, &d.StartsAt, &d.EndsAt, &d.ScreenName, &d.TheatreName, &d.TheatreCity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.attachSeats(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetDetailForUser returns one booking with details, enforcing
// ownership: a foreign booking yields ErrForbidden, a missing one
// ErrBookingNotFound.
func (r *BookingRepo) GetDetailForUser(ctx context.Context, id, userID uint64) (*BookingDetail, error) {
	const q = `
	SELECT b.id, b.reference, b.showtime_id, b.status, b.total_amount_cents, b.booked_at,
	       m.title, st.starts_at, st.ends_at, sc.name, t.name, t.city, b.user_id
	FROM bookings b
	JOIN showtimes st ON st.id = b.showtime_id
	JOIN movies m     ON m.id = st.movie_id
	JOIN screens sc   ON sc.id = st.screen_id
	JOIN theatres t   ON t.id = sc.theatre_id
	WHERE b.id = ?`
	var d BookingDetail
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, id,
	).Scan(&d.ID, &d.Reference, &d.ShowtimeID, &d.Status, &d.TotalAmountCents,
		&d.BookedAt, &d.MovieTitle, &d.StartsAt, &d.EndsAt, &d.ScreenName, &d.TheatreName, &d.TheatreCity, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	if err := r.attachSeats(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *BookingRepo) attachSeats(ctx context.Context, d *BookingDetail) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bs.seat_id, s.row_label, s.seat_number
		 FROM booking_seats bs JOIN seats s ON s.id = bs.seat_id
		 WHERE bs.booking_id = ? ORDER BY s.row_label, s.seat_number`, d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var seat struct {
			SeatID     uint64 `json:"seat_id"`
			RowLabel   string `json:"row_label"`
			SeatNumber uint32 `json:"seat_number"`
		}
		if err := rows.Scan(&seat.SeatID, &seat.RowLabel, &seat.SeatNumber); err != nil {
			return err
		}
		d.Seats = append(d.Seats, seat)
	}
	return rows.Err()
}
