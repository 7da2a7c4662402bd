// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully confirmed.
// It carries enough information for downstream consumers to notify the
// customer or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	Reference        string   `json:"reference"`
	UserID           uint64   `json:"user_id"`
	UserEmail        string   `json:"user_email"`
	ShowtimeID       uint64   `json:"showtime_id"`
	MovieTitle       string   `json:"movie_title"`
	TheatreName      string   `json:"theatre_name"`
	TheatreCity      string   `json:"theatre_city"`
	ScreenName       string   `json:"screen_name"`
	StartsAt         string   `json:"starts_at"`
	EndsAt           string   `json:"ends_at"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
