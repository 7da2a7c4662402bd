package repository // repository defines read access and map generation for seats

import (
	"context"
	"database/sql"

	"github.com/cinetick/movie-booking/internal/model"
)

// SeatRepo provides read access to seat rows and generates seat maps
// when a showtime is created.  It never changes a seat's status:
// every status transition goes through the seat store.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatCols = `id, showtime_id, row_label, seat_number, status, booking_id, reserved_until, created_at, updated_at`

func scanSeat(row interface{ Scan(...interface{}) error }) (*model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.ID, &s.ShowtimeID, &s.RowLabel, &s.SeatNumber, &s.Status,
		&s.BookingID, &s.ReservedUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GenerateMap builds the seat rows for a new showtime from its
// screen layout: rows "A", "B", ... each numbered 1..seatsPerRow,
// all AVAILABLE.  Row labels continue "AA", "AB", ... past 26 rows.
func GenerateMap(showtimeID uint64, seatRows, seatsPerRow uint32) []model.Seat {
	seats := make([]model.Seat, 0, seatRows*seatsPerRow)
	for r := uint32(0); r < seatRows; r++ {
		label := rowLabel(r)
		for n := uint32(1); n <= seatsPerRow; n++ {
			seats = append(seats, model.Seat{
				ShowtimeID: showtimeID,
				RowLabel:   label,
				SeatNumber: n,
				Status:     model.SeatAvailable,
			})
		}
	}
	return seats
}

// rowLabel converts a zero-based row index to a spreadsheet-style
// label: 0 -> "A", 25 -> "Z", 26 -> "AA".
func rowLabel(idx uint32) string {
	label := ""
	n := idx + 1
	for n > 0 {
		n--
		label = string(rune('A'+n%26)) + label
		n /= 26
	}
	return label
}

// CreateBulkTx inserts a showtime's seat map in a single statement
// within the caller's transaction.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (showtime_id, row_label, seat_number, status) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.ShowtimeID, s.RowLabel, s.SeatNumber, s.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListAll returns every seat row across all showtimes.  Used to
// hydrate the in-memory seat store at startup.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatCols+` FROM seats ORDER BY showtime_id, row_label, seat_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByShowtime retrieves the full seat map of a showtime ordered by
// row then number.
func (r *SeatRepo) GetByShowtime(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seats WHERE showtime_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

