// Package config loads application configuration from environment
// variables. Required variables are enforced with must(); optional
// ones fall back to sensible defaults.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field maps to
// one environment variable.
type Config struct {
	Env  string // APP_ENV (dev/test/prod)
	Port string // APP_PORT

	DBUser string // DB_USER
	DBPass string // DB_PASS (empty allowed)
	DBHost string // DB_HOST
	DBPort string // DB_PORT
	DBName string // DB_NAME

	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST

	ReservationTTL  time.Duration // RESERVATION_TTL, how long a seat hold lasts
	SweeperInterval time.Duration // SWEEPER_INTERVAL between background passes
	SeatStore       string        // SEAT_STORE: mysql (default) or memory

	AMQPURL string // RABBITMQ_URL (AMQP_URL also honored); empty disables the broker

	SMTPHost string // SMTP_HOST; empty disables outgoing mail
	SMTPPort int    // SMTP_PORT
	SMTPUser string // SMTP_USER
	SMTPPass string // SMTP_PASS
	SMTPFrom string // SMTP_FROM sender address
}

// Load reads the configuration from the environment. Missing required
// variables abort startup with a fatal log message.
func Load() Config {
	amqp := os.Getenv("RABBITMQ_URL")
	if amqp == "" {
		amqp = os.Getenv("AMQP_URL")
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		ReservationTTL:  envDur("RESERVATION_TTL", 10*time.Minute),
		SweeperInterval: envDur("SWEEPER_INTERVAL", time.Minute),
		SeatStore:       envStr("SEAT_STORE", "mysql"),

		AMQPURL: amqp,

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: envStr("SMTP_FROM", "noreply@cinetick.io"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but parses the value as an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
