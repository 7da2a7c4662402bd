package model

import "time"

// Movie status values.  A movie is RUNNING while the current date
// falls inside its [StartDate, EndDate] window and NOT_RUNNING
// otherwise.  The sweeper reconciles the stored status with the
// clock; nothing else writes it.
const (
	MovieRunning    = "RUNNING"
	MovieNotRunning = "NOT_RUNNING"
)

// MovieStatusFor derives the status a movie should carry at the
// given instant from its availability window.
func MovieStatusFor(startDate, endDate, now time.Time) string {
	if !startDate.After(now) && !endDate.Before(now) {
		return MovieRunning
	}
	return MovieNotRunning
}

// Movie represents a film in the catalogue.  Showtimes reference
// movies; the availability window [StartDate, EndDate] drives the
// Status field.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title.
//  Description – optional synopsis.
//  Genre       – genre label (e.g. DRAMA, ACTION).
//  DurationMin – running time in minutes.
//  Language    – spoken language.
//  StartDate   – first day the movie is screened.
//  EndDate     – last day the movie is screened.
//  Status      – RUNNING or NOT_RUNNING, derived from the window.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	Description *string   // movies.description (nullable)
	Genre       string    // movies.genre
	DurationMin uint32    // movies.duration_min
	Language    string    // movies.language
	StartDate   time.Time // movies.start_date
	EndDate     time.Time // movies.end_date
	Status      string    // movies.status
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}
