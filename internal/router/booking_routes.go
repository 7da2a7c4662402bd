package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/handler"
	"github.com/cinetick/movie-booking/internal/middleware"
)

// RegisterBooking registers customer-scoped endpoints under /v1. All routes
// require a valid JWT and the CUSTOMER role. Customers reserve seats for a
// showtime, confirm or cancel the resulting hold, and manage their own
// bookings.
func RegisterBooking(e *echo.Echo, r *handler.ReservationHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// Seat holds. Reserving returns an opaque token the client presents to
	// confirm; cancelling by token frees the seats early.
	g.POST("/showtimes/:id/reserve", r.Reserve)
	g.DELETE("/reservations/:token", r.Cancel)

	// Bookings. Confirm converts a live hold into a paid booking.
	g.POST("/bookings", b.Confirm)
	g.GET("/my-bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.DELETE("/bookings/:id", b.Cancel)
}
