package model

import "time"

// User roles.  ADMIN manages the catalogue (movies, theatres,
// screens, showtimes) and booking statuses; CUSTOMER reserves and
// books seats.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  Login is rejected until the account's email has
// been verified with the code sent at registration.  The json tags
// are omitted because these structs are used internally by the
// repository layer; handlers define separate response types.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique email address.
//  PasswordHash     – bcrypt hashed password.
//  Role             – ADMIN or CUSTOMER.
//  EmailVerified    – whether the verification code was redeemed.
//  VerifyCode       – pending verification code (nil once redeemed).
//  VerifyCodeExpiry – when the pending code lapses (nil once redeemed).
//  IsActive         – whether the account is active.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64     // users.id
	Email            string     // users.email
	PasswordHash     string     // users.password_hash
	Role             string     // users.role
	EmailVerified    bool       // users.email_verified
	VerifyCode       *string    // users.verify_code (nullable)
	VerifyCodeExpiry *time.Time // users.verify_code_expires_at (nullable)
	IsActive         bool       // users.is_active
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
