package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// MySQLSeatStore implements SeatStore on top of MySQL.  Every
// operation runs in a single transaction; the reserve path locks the
// requested rows with SELECT ... FOR UPDATE before mutating them, so
// concurrent requests for overlapping seat sets serialize and the
// loser observes the winner's state.  Holds are persisted in the
// reservations/reservation_seats tables so they survive restarts and
// are visible to every server instance.
type MySQLSeatStore struct {
	db *sql.DB
}

// NewMySQL returns a MySQLSeatStore bound to the provided database.
func NewMySQL(db *sql.DB) *MySQLSeatStore { return &MySQLSeatStore{db: db} }

// DB exposes the underlying handle for callers that need to compose
// reads with store state (e.g. recomputing available-seat counts).
func (s *MySQLSeatStore) DB() *sql.DB { return s.db }

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(showtimeID uint64, seatIDs []uint64) []interface{} {
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	return args
}

// TryReserve implements the all-or-nothing hold.  Inside one
// transaction it first sweeps lapsed holds for the showtime (so a
// seat whose hold just expired is reservable without waiting for the
// background sweeper), then locks the requested rows, verifies every
// one is AVAILABLE and only then flips the whole set to RESERVED.
func (s *MySQLSeatStore) TryReserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, holderID uint64, ttl time.Duration) (*model.Reservation, error) {
	if len(seatIDs) == 0 {
		return nil, ErrSeatNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, _, err := s.sweepShowtimeTx(ctx, tx, showtimeID, now); err != nil {
		return nil, err
	}

	// Lock the requested rows and verify availability before any write.
	q := `SELECT id, status FROM seats WHERE showtime_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, idArgs(showtimeID, seatIDs)...)
	if err != nil {
		return nil, err
	}
	statuses := make(map[uint64]string, len(seatIDs))
	for rows.Next() {
		var id uint64
		var st string
		if scanErr := rows.Scan(&id, &st); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		statuses[id] = st
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	var conflicts []uint64
	for _, id := range seatIDs {
		st, ok := statuses[id]
		if !ok {
			return nil, ErrSeatNotFound
		}
		if st != model.SeatAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatConflictError{SeatIDs: conflicts}
	}

	expiresAt := now.Add(ttl)
	upd := `UPDATE seats SET status = ?, reserved_until = ?, booking_id = NULL, updated_at = UTC_TIMESTAMP()
	        WHERE showtime_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) AND status = ?`
	args := []interface{}{model.SeatReserved, expiresAt}
	args = append(args, idArgs(showtimeID, seatIDs)...)
	args = append(args, model.SeatAvailable)
	res, err := tx.ExecContext(ctx, upd, args...)
	if err != nil {
		return nil, err
	}
	// The rows are locked, so a shortfall here means a bug rather than
	// a race; treat it as a conflict and keep the set untouched.
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if int(n) != len(seatIDs) {
		return nil, &SeatConflictError{SeatIDs: seatIDs}
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (token, showtime_id, holder_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		token, showtimeID, holderID, expiresAt, now,
	); err != nil {
		return nil, err
	}
	ins := `INSERT INTO reservation_seats (reservation_token, seat_id) VALUES `
	insArgs := make([]interface{}, 0, len(seatIDs)*2)
	for i, id := range seatIDs {
		if i > 0 {
			ins += ","
		}
		ins += "(?, ?)"
		insArgs = append(insArgs, token, id)
	}
	if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &model.Reservation{
		Token:      token,
		ShowtimeID: showtimeID,
		SeatIDs:    append([]uint64(nil), seatIDs...),
		HolderID:   holderID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

// GetReservation loads an active hold by token.
func (s *MySQLSeatStore) GetReservation(ctx context.Context, token string) (*model.Reservation, error) {
	res := &model.Reservation{Token: token}
	err := s.db.QueryRowContext(ctx,
		`SELECT showtime_id, holder_id, expires_at, created_at FROM reservations WHERE token = ?`,
		token,
	).Scan(&res.ShowtimeID, &res.HolderID, &res.ExpiresAt, &res.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	if res.Expired(time.Now().UTC()) {
		return nil, ErrReservationExpired
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seat_id FROM reservation_seats WHERE reservation_token = ?`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res.SeatIDs = append(res.SeatIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ConfirmBooking flips the hold's seats to BOOKED and persists the
// booking record inside the same transaction.  When the hold is
// stale the expired seats are released and nothing else is written,
// so no booking row can ever reference unconfirmed seats.
func (s *MySQLSeatStore) ConfirmBooking(ctx context.Context, token string, booking *model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	resv, seatIDs, err := s.lockReservationTx(ctx, tx, token)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if resv.Expired(now) {
		// Eagerly clean up rather than waiting for the sweeper, then
		// surface the expiry.  The cleanup commits on its own.
		if err := s.dropReservationTx(ctx, tx, token, resv.ShowtimeID, seatIDs, model.SeatAvailable); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return ErrReservationExpired
	}

	ins, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (reference, user_id, showtime_id, status, total_amount_cents, booked_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		booking.Reference, booking.UserID, booking.ShowtimeID, booking.Status,
		booking.TotalAmountCents, booking.BookedAt, now,
	)
	if err != nil {
		return err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return err
	}
	booking.ID = uint64(id)

	upd := `UPDATE seats SET status = ?, booking_id = ?, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
	        WHERE showtime_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) AND status = ?`
	args := []interface{}{model.SeatBooked, booking.ID}
	args = append(args, idArgs(resv.ShowtimeID, seatIDs)...)
	args = append(args, model.SeatReserved)
	res, err := tx.ExecContext(ctx, upd, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if int(n) != len(seatIDs) {
		// A seat slipped out of RESERVED (sweeper raced the expiry).
		// Roll back everything, including the booking insert.
		return ErrReservationExpired
	}

	perSeat := booking.TotalAmountCents / uint32(len(seatIDs))
	bs := `INSERT INTO booking_seats (booking_id, showtime_id, seat_id, price_cents) VALUES `
	bsArgs := make([]interface{}, 0, len(seatIDs)*4)
	for i, sid := range seatIDs {
		if i > 0 {
			bs += ","
		}
		bs += "(?, ?, ?, ?)"
		bsArgs = append(bsArgs, booking.ID, resv.ShowtimeID, sid, perSeat)
	}
	if _, err := tx.ExecContext(ctx, bs, bsArgs...); err != nil {
		return err
	}
	if err := s.deleteReservationTx(ctx, tx, token); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CancelReservation releases the seats of an active hold and drops
// it.  A lapsed hold is cleaned up the same way but reported as
// expired so the caller never mistakes a stale token for a live one.
func (s *MySQLSeatStore) CancelReservation(ctx context.Context, token string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	resv, seatIDs, err := s.lockReservationTx(ctx, tx, token)
	if err != nil {
		return err
	}
	expired := resv.Expired(time.Now().UTC())
	if err := s.dropReservationTx(ctx, tx, token, resv.ShowtimeID, seatIDs, model.SeatAvailable); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	if expired {
		return ErrReservationExpired
	}
	return nil
}

// ReleaseBooking marks the booking with newStatus and frees its
// seats inside one transaction.
func (s *MySQLSeatStore) ReleaseBooking(ctx context.Context, bookingID uint64, newStatus string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, bookingID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	// Re-check under the lock: a concurrent transition may have won.
	if !model.CanTransition(current, newStatus) {
		return ErrInvalidTransition
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		newStatus, bookingID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = ?, booking_id = NULL, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
		 WHERE booking_id = ? AND status = ?`,
		model.SeatAvailable, bookingID, model.SeatBooked,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Release transitions seats from RESERVED or BOOKED back to
// AVAILABLE.  Already-AVAILABLE seats are untouched, which makes the
// operation idempotent.
func (s *MySQLSeatStore) Release(ctx context.Context, showtimeID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, booking_id = NULL, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
	      WHERE showtime_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) AND status IN (?, ?)`
	args := []interface{}{model.SeatAvailable}
	args = append(args, idArgs(showtimeID, seatIDs)...)
	args = append(args, model.SeatReserved, model.SeatBooked)
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

// SweepExpired releases all seats whose hold lapsed at or before now
// and deletes the lapsed reservations.  It returns the number of
// seats released and the distinct showtimes touched.
func (s *MySQLSeatStore) SweepExpired(ctx context.Context, now time.Time) (int, []uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	released, showtimes, err := s.sweepAllTx(ctx, tx, now)
	if err != nil {
		return 0, nil, err
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	committed = true
	return released, showtimes, nil
}

// lockReservationTx loads a hold and its seats with the row locked
// for the remainder of the transaction.
func (s *MySQLSeatStore) lockReservationTx(ctx context.Context, tx *sql.Tx, token string) (*model.Reservation, []uint64, error) {
	resv := &model.Reservation{Token: token}
	err := tx.QueryRowContext(ctx,
		`SELECT showtime_id, holder_id, expires_at, created_at FROM reservations WHERE token = ? FOR UPDATE`,
		token,
	).Scan(&resv.ShowtimeID, &resv.HolderID, &resv.ExpiresAt, &resv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM reservation_seats WHERE reservation_token = ?`, token)
	if err != nil {
		return nil, nil, err
	}
	var seatIDs []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, nil, scanErr
		}
		seatIDs = append(seatIDs, id)
	}
	if err := rows.Close(); err != nil {
		return nil, nil, err
	}
	resv.SeatIDs = seatIDs
	return resv, seatIDs, nil
}

// dropReservationTx releases a hold's seats to the given status and
// deletes the hold rows.
func (s *MySQLSeatStore) dropReservationTx(ctx context.Context, tx *sql.Tx, token string, showtimeID uint64, seatIDs []uint64, toStatus string) error {
	if len(seatIDs) > 0 {
		q := `UPDATE seats SET status = ?, booking_id = NULL, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
		      WHERE showtime_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) AND status = ?`
		args := []interface{}{toStatus}
		args = append(args, idArgs(showtimeID, seatIDs)...)
		args = append(args, model.SeatReserved)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return s.deleteReservationTx(ctx, tx, token)
}

func (s *MySQLSeatStore) deleteReservationTx(ctx context.Context, tx *sql.Tx, token string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_seats WHERE reservation_token = ?`, token); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE token = ?`, token)
	return err
}

// sweepShowtimeTx expires lapsed holds for a single showtime inside
// an existing transaction.  Used by TryReserve so freshly lapsed
// seats are reservable immediately.
func (s *MySQLSeatStore) sweepShowtimeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, now time.Time) (int, []uint64, error) {
	return s.sweepTx(ctx, tx, now, &showtimeID)
}

// sweepAllTx expires lapsed holds across every showtime.
func (s *MySQLSeatStore) sweepAllTx(ctx context.Context, tx *sql.Tx, now time.Time) (int, []uint64, error) {
	return s.sweepTx(ctx, tx, now, nil)
}

func (s *MySQLSeatStore) sweepTx(ctx context.Context, tx *sql.Tx, now time.Time, showtimeID *uint64) (int, []uint64, error) {
	q := `SELECT token, showtime_id FROM reservations WHERE expires_at <= ?`
	args := []interface{}{now}
	if showtimeID != nil {
		q += ` AND showtime_id = ?`
		args = append(args, *showtimeID)
	}
	q += ` FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return 0, nil, err
	}
	var tokens []string
	showtimeSet := make(map[uint64]struct{})
	for rows.Next() {
		var token string
		var sid uint64
		if scanErr := rows.Scan(&token, &sid); scanErr != nil {
			rows.Close()
			return 0, nil, scanErr
		}
		tokens = append(tokens, token)
		showtimeSet[sid] = struct{}{}
	}
	if err := rows.Close(); err != nil {
		return 0, nil, err
	}

	released := 0
	for _, token := range tokens {
		res, err := tx.ExecContext(ctx,
			`UPDATE seats SET status = ?, booking_id = NULL, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
			 WHERE id IN (SELECT seat_id FROM reservation_seats WHERE reservation_token = ?) AND status = ?`,
			model.SeatAvailable, token, model.SeatReserved,
		)
		if err != nil {
			return 0, nil, err
		}
		if n, err := res.RowsAffected(); err == nil {
			released += int(n)
		}
		if err := s.deleteReservationTx(ctx, tx, token); err != nil {
			return 0, nil, err
		}
	}

	// Belt for seats left RESERVED without a hold row (e.g. a crash
	// between writes under an older schema).
	orphan := `SELECT id, showtime_id FROM seats WHERE status = ? AND reserved_until IS NOT NULL AND reserved_until <= ?`
	oArgs := []interface{}{model.SeatReserved, now}
	if showtimeID != nil {
		orphan += ` AND showtime_id = ?`
		oArgs = append(oArgs, *showtimeID)
	}
	orphan += ` FOR UPDATE`
	oRows, err := tx.QueryContext(ctx, orphan, oArgs...)
	if err != nil {
		return 0, nil, err
	}
	var orphanIDs []uint64
	for oRows.Next() {
		var id, sid uint64
		if scanErr := oRows.Scan(&id, &sid); scanErr != nil {
			oRows.Close()
			return 0, nil, scanErr
		}
		orphanIDs = append(orphanIDs, id)
		showtimeSet[sid] = struct{}{}
	}
	if err := oRows.Close(); err != nil {
		return 0, nil, err
	}
	if len(orphanIDs) > 0 {
		q := `UPDATE seats SET status = ?, booking_id = NULL, reserved_until = NULL, updated_at = UTC_TIMESTAMP()
		      WHERE id IN (` + placeholders(len(orphanIDs)) + `)`
		args := []interface{}{model.SeatAvailable}
		for _, id := range orphanIDs {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return 0, nil, err
		}
		released += len(orphanIDs)
	}

	showtimes := make([]uint64, 0, len(showtimeSet))
	for sid := range showtimeSet {
		showtimes = append(showtimes, sid)
	}
	return released, showtimes, nil
}
