package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/handler"
	"github.com/cinetick/movie-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, which
// load balancers and monitoring systems use to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session. Each handler is
	// responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/resend-code", a.ResendCode)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new access
	// token without rotation.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh token in the body and does not require a JWT,
	// so that clients with an expired access token can still end sessions.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token. Both roles may inspect
	// their own account.
	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "ADMIN"),
	)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints. These return
// sanitized catalogue data for guests and apply no JWT or role middleware.
// The optional mws (rate limiting, response caching) wrap every route in
// the group.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)

	g.GET("/movies", p.ListMovies)
	g.GET("/movies/search", p.SearchMovies)
	g.GET("/movies/:id", p.GetMovie)
	g.GET("/movies/:id/showtimes", p.ListShowtimesByMovie)
	g.GET("/theatres", p.ListTheatres)
	g.GET("/theatres/:id", p.GetTheatre)
	g.GET("/theatres/:id/screens", p.ListScreensByTheatre)
	g.GET("/showtimes/:id", p.GetShowtime)
	// Seat availability for a showtime. Guests can preview the seat map
	// before logging in to reserve; booking identities stay private.
	g.GET("/showtimes/:id/seats", p.GetSeatMap)
}
