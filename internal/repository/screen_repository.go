package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/movie-booking/internal/model"
)

// ScreenRepo manages persistence for the screens table.  The seat
// layout (rows x seats per row) recorded here is the template from
// which each new showtime's seat map is generated.
type ScreenRepo struct {
	db *sql.DB
}

// NewScreenRepo constructs a ScreenRepo with the given DB handle.
func NewScreenRepo(db *sql.DB) *ScreenRepo { return &ScreenRepo{db: db} }

const screenCols = `id, theatre_id, name, seat_rows, seats_per_row, is_active, created_at, updated_at`

func scanScreen(row interface{ Scan(...interface{}) error }) (*model.Screen, error) {
	var s model.Screen
	err := row.Scan(&s.ID, &s.TheatreID, &s.Name, &s.SeatRows, &s.SeatsPerRow, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a screen.  A duplicate name within the theatre is
// reported as ErrConflict.
func (r *ScreenRepo) Create(ctx context.Context, s *model.Screen) error {
	const q = `INSERT INTO screens (theatre_id, name, seat_rows, seats_per_row) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TheatreID, s.Name, s.SeatRows, s.SeatsPerRow)
	if err != nil {
		if isDuplicateError(err) {
			return ErrConflict
		}
		if isFKError(err) {
			return ErrTheatreNotFound
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

// GetByID retrieves a screen or ErrScreenNotFound.
func (r *ScreenRepo) GetByID(ctx context.Context, id uint64) (*model.Screen, error) {
	s, err := scanScreen(r.db.QueryRowContext(ctx, `SELECT `+screenCols+` FROM screens WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScreenNotFound
	}
	return s, err
}

// ListByTheatre returns all screens of one theatre.
func (r *ScreenRepo) ListByTheatre(ctx context.Context, theatreID uint64) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+screenCols+` FROM screens WHERE theatre_id = ? ORDER BY name`, theatreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Screen
	for rows.Next() {
		s, err := scanScreen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Update renames a screen or toggles its active flag.  The seat
// layout is immutable once created; existing seat maps depend on it.
func (r *ScreenRepo) Update(ctx context.Context, s *model.Screen) error {
	const q = `UPDATE screens SET name = ?, is_active = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, s.Name, s.IsActive, s.ID)
	if isDuplicateError(err) {
		return ErrConflict
	}
	return err
}

// Delete removes a screen.  Showtimes referencing it block deletion.
func (r *ScreenRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM screens WHERE id = ?`, id)
	if err != nil {
		if isFKError(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScreenNotFound
	}
	return nil
}
