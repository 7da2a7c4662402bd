package repository // repository defines data access for movies

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// MovieRepo manages persistence for the movies table.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieCols = `id, title, description, genre, duration_min, language, start_date, end_date, status, created_at, updated_at`

func scanMovie(row interface{ Scan(...interface{}) error }) (*model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.DurationMin, &m.Language,
		&m.StartDate, &m.EndDate, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a movie and assigns the generated ID.  Status is
// derived from the availability window at insert time rather than
// waiting for the next sweep.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.Status = model.MovieStatusFor(m.StartDate, m.EndDate, time.Now().UTC())
	const q = `INSERT INTO movies (title, description, genre, duration_min, language, start_date, end_date, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.Genre, m.DurationMin, m.Language,
		m.StartDate, m.EndDate, m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieCols+` FROM movies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// List returns movies ordered by start date.  When runningOnly is
// set, only movies currently inside their availability window are
// returned.
func (r *MovieRepo) List(ctx context.Context, runningOnly bool) ([]model.Movie, error) {
	q := `SELECT ` + movieCols + ` FROM movies`
	if runningOnly {
		q += ` WHERE status = '` + model.MovieRunning + `'`
	}
	q += ` ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields of a movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	m.Status = model.MovieStatusFor(m.StartDate, m.EndDate, time.Now().UTC())
	const q = `UPDATE movies SET title = ?, description = ?, genre = ?, duration_min = ?, language = ?,
	           start_date = ?, end_date = ?, status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.Genre, m.DurationMin, m.Language,
		m.StartDate, m.EndDate, m.Status, m.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Could also be a no-change update; verify existence.
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a movie.  Showtimes referencing it block deletion
// at the DB level (FK restrict); surfaced as ErrConflict.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		if isFKError(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// ListStatusMismatched returns movies whose stored status disagrees
// with their availability window as of now.  The sweeper walks the
// result and fixes each row individually so one failure cannot stall
// the rest.
func (r *MovieRepo) ListStatusMismatched(ctx context.Context, now time.Time) ([]model.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies
	           WHERE (status = ? AND (start_date > ? OR end_date < ?))
	              OR (status = ? AND start_date <= ? AND end_date >= ?)`
	rows, err := r.db.QueryContext(ctx, q,
		model.MovieRunning, now, now,
		model.MovieNotRunning, now, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateStatus persists a single movie's derived status.
func (r *MovieRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movies SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	return err
}

// MovieSearchQuery filters the public movie search.
type MovieSearchQuery struct {
	Title       string
	Genre       string
	Language    string
	RunningOnly bool
	Page        int
	PageSize    int
}

// Search returns a page of movies matching the query plus the total
// match count for pagination.
func (r *MovieRepo) Search(ctx context.Context, q MovieSearchQuery) ([]model.Movie, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if q.Title != "" {
		where += ` AND title LIKE ?`
		args = append(args, "%"+q.Title+"%")
	}
	if q.Genre != "" {
		where += ` AND genre = ?`
		args = append(args, q.Genre)
	}
	if q.Language != "" {
		where += ` AND language = ?`
		args = append(args, q.Language)
	}
	if q.RunningOnly {
		where += ` AND status = ?`
		args = append(args, model.MovieRunning)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PageSize
	listArgs := append(args, q.PageSize, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movieCols+` FROM movies`+where+` ORDER BY start_date, id LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}
