package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/utils"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrCodeInvalid is returned when an email verification code does
// not match or has lapsed.
var ErrCodeInvalid = errors.New("verification code invalid or expired")

const userCols = `id, email, password_hash, role, email_verified, verify_code, verify_code_expires_at, is_active, created_at, updated_at`

// Create inserts a user with a pending verification code and returns
// its ID.  The account stays unverified until the code is redeemed.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int, code string, codeExpiry time.Time) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, verify_code, verify_code_expires_at) VALUES (?,?,?,?,?)",
		email, hash, role, code, codeExpiry)
	if err != nil {
		if isDuplicateError(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified,
		&u.VerifyCode, &u.VerifyCodeExpiry, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// RedeemVerifyCode marks the account verified when the code matches
// and has not lapsed.  The code is cleared on success so it cannot
// be replayed.
func (r *UserRepo) RedeemVerifyCode(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, verify_code = NULL, verify_code_expires_at = NULL, updated_at = UTC_TIMESTAMP()
		 WHERE email = ? AND verify_code = ? AND verify_code_expires_at > UTC_TIMESTAMP() AND email_verified = 0`,
		email, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCodeInvalid
	}
	return nil
}

// ResetVerifyCode stores a fresh pending code for an unverified
// account.
func (r *UserRepo) ResetVerifyCode(ctx context.Context, email, code string, expiry time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET verify_code = ?, verify_code_expires_at = ?, updated_at = UTC_TIMESTAMP()
		 WHERE email = ? AND email_verified = 0`,
		code, expiry, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
