package repository // repository defines data access for theatres and screens

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/movie-booking/internal/model"
)

// TheatreRepo manages persistence for the theatres table.
type TheatreRepo struct {
	db *sql.DB
}

// NewTheatreRepo constructs a TheatreRepo with the given DB handle.
func NewTheatreRepo(db *sql.DB) *TheatreRepo { return &TheatreRepo{db: db} }

const theatreCols = `id, name, city, address, is_active, created_at, updated_at`

func scanTheatre(row interface{ Scan(...interface{}) error }) (*model.Theatre, error) {
	var t model.Theatre
	err := row.Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a theatre.  A duplicate name within the same city
// is reported as ErrConflict.
func (r *TheatreRepo) Create(ctx context.Context, t *model.Theatre) error {
	const q = `INSERT INTO theatres (name, city, address) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.City, t.Address)
	if err != nil {
		if isDuplicateError(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a theatre or ErrTheatreNotFound.
func (r *TheatreRepo) GetByID(ctx context.Context, id uint64) (*model.Theatre, error) {
	t, err := scanTheatre(r.db.QueryRowContext(ctx, `SELECT `+theatreCols+` FROM theatres WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTheatreNotFound
	}
	return t, err
}

// List returns all active theatres ordered by city then name.
func (r *TheatreRepo) List(ctx context.Context) ([]model.Theatre, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+theatreCols+` FROM theatres WHERE is_active = 1 ORDER BY city, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Theatre
	for rows.Next() {
		t, err := scanTheatre(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update overwrites a theatre's mutable fields.
func (r *TheatreRepo) Update(ctx context.Context, t *model.Theatre) error {
	const q = `UPDATE theatres SET name = ?, city = ?, address = ?, is_active = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, t.Name, t.City, t.Address, t.IsActive, t.ID)
	if isDuplicateError(err) {
		return ErrConflict
	}
	return err
}

// Delete removes a theatre.  Screens referencing it block deletion.
func (r *TheatreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM theatres WHERE id = ?`, id)
	if err != nil {
		if isFKError(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTheatreNotFound
	}
	return nil
}
