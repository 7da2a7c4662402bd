package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/handler"
	"github.com/cinetick/movie-booking/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Movies ----
	g.POST("/movies", a.CreateMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)

	// ---- Theatres ----
	g.POST("/theatres", a.CreateTheatre)
	g.PUT("/theatres/:id", a.UpdateTheatre)
	g.PATCH("/theatres/:id", a.UpdateTheatre) // partial updates accepted via PATCH as well
	g.DELETE("/theatres/:id", a.DeleteTheatre)

	// ---- Screens ----
	g.POST("/screens", a.CreateScreen)
	g.PUT("/screens/:id", a.UpdateScreen)
	g.PATCH("/screens/:id", a.UpdateScreen)
	g.DELETE("/screens/:id", a.DeleteScreen)

	// ---- Showtimes ----
	// Creating a showtime also materializes its seat inventory from the
	// screen layout; rescheduling and deletion are refused once confirmed
	// bookings exist.
	g.POST("/showtimes", a.CreateShowtime)
	g.PUT("/showtimes/:id", a.UpdateShowtime)
	g.DELETE("/showtimes/:id", a.DeleteShowtime)

	// ---- Bookings ----
	// Operator override for payment reconciliation and support cases.
	g.PATCH("/bookings/:id/status", a.UpdateBookingStatus)
}
