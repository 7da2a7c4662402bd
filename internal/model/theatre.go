package model

import "time"

// Theatre represents a cinema location.  Screens belong to a
// theatre and showtimes are scheduled on screens.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique theatre name per city.
//  City      – city where the theatre is located.
//  Address   – optional street address.
//  IsActive  – whether the theatre is open for scheduling.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Theatre struct {
	ID        uint64    // theatres.id
	Name      string    // theatres.name
	City      string    // theatres.city
	Address   *string   // theatres.address (nullable)
	IsActive  bool      // theatres.is_active
	CreatedAt time.Time // theatres.created_at
	UpdatedAt time.Time // theatres.updated_at
}

// Screen represents an individual auditorium within a theatre.
// Its SeatRows and SeatsPerRow define the layout used to generate
// the seat map whenever a showtime is created on this screen.
//
// Fields:
//  ID          – primary key identifier.
//  TheatreID   – theatre to which this screen belongs.
//  Name        – unique screen name per theatre (e.g. "Screen 3").
//  SeatRows    – number of seating rows.
//  SeatsPerRow – number of seats in each row.
//  IsActive    – whether the screen may host showtimes.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Screen struct {
	ID          uint64    // screens.id
	TheatreID   uint64    // screens.theatre_id
	Name        string    // screens.name
	SeatRows    uint32    // screens.seat_rows
	SeatsPerRow uint32    // screens.seats_per_row
	IsActive    bool      // screens.is_active
	CreatedAt   time.Time // screens.created_at
	UpdatedAt   time.Time // screens.updated_at
}
