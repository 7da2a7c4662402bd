// Package handler exposes the HTTP handlers. This file covers the
// public browse API: movies, theatres, showtimes and seat maps are
// readable without authentication, with sensitive fields filtered
// from responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/repository"
)

// PublicHandler aggregates the repositories needed for browsing.
type PublicHandler struct {
	Movies    *repository.MovieRepo
	Theatres  *repository.TheatreRepo
	Screens   *repository.ScreenRepo
	Showtimes *repository.ShowtimeRepo
	Seats     *repository.SeatRepo
}

type publicMovie struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Genre       string  `json:"genre"`
	DurationMin uint32  `json:"duration_min"`
	Language    string  `json:"language"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Status      string  `json:"status"`
}

type publicTheatre struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Address *string `json:"address,omitempty"`
}

type publicScreen struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	SeatRows    uint32 `json:"seat_rows"`
	SeatsPerRow uint32 `json:"seats_per_row"`
}

type publicShowtime struct {
	ID             uint64    `json:"id"`
	MovieID        uint64    `json:"movie_id"`
	ScreenID       uint64    `json:"screen_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
}

type publicSeat struct {
	ID     uint64 `json:"id"`
	Label  string `json:"label"`
	Row    string `json:"row"`
	Number uint32 `json:"number"`
	Status string `json:"status"`
}

func toPublicMovie(m model.Movie) publicMovie {
	return publicMovie{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genre:       m.Genre,
		DurationMin: m.DurationMin,
		Language:    m.Language,
		StartDate:   m.StartDate.Format("2006-01-02"),
		EndDate:     m.EndDate.Format("2006-01-02"),
		Status:      m.Status,
	}
}

// ListMovies returns movies, by default only those currently running.
// Pass ?all=true to include past and future titles.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	runningOnly := c.QueryParam("all") != "true"
	movies, err := h.Movies.List(c.Request().Context(), runningOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicMovie, 0, len(movies))
	for _, m := range movies {
		out = append(out, toPublicMovie(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SearchMovies filters movies by title substring, genre and language
// with pagination.
func (h *PublicHandler) SearchMovies(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.MovieSearchQuery{
		Title:       c.QueryParam("title"),
		Genre:       c.QueryParam("genre"),
		Language:    c.QueryParam("language"),
		RunningOnly: c.QueryParam("all") != "true",
		Page:        page,
		PageSize:    ps,
	}
	items, total, err := h.Movies.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicMovie, 0, len(items))
	for _, m := range items {
		out = append(out, toPublicMovie(m))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      out,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// GetMovie returns one movie with its upcoming showtimes.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	shows, err := h.Showtimes.ListByMovie(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	outShows := make([]publicShowtime, 0, len(shows))
	for _, s := range shows {
		outShows = append(outShows, toPublicShowtime(s))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie":     toPublicMovie(*m),
		"showtimes": outShows,
	})
}

// ListTheatres returns all active theatres.
func (h *PublicHandler) ListTheatres(c echo.Context) error {
	theatres, err := h.Theatres.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicTheatre, 0, len(theatres))
	for _, t := range theatres {
		if !t.IsActive {
			continue
		}
		out = append(out, publicTheatre{ID: t.ID, Name: t.Name, City: t.City, Address: t.Address})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTheatre returns one theatre.
func (h *PublicHandler) GetTheatre(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Theatres.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTheatreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !t.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
	}
	return c.JSON(http.StatusOK, publicTheatre{ID: t.ID, Name: t.Name, City: t.City, Address: t.Address})
}

// ListShowtimesByMovie returns the upcoming showtimes of one movie.
func (h *PublicHandler) ListShowtimesByMovie(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	shows, err := h.Showtimes.ListByMovie(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicShowtime, 0, len(shows))
	for _, s := range shows {
		out = append(out, toPublicShowtime(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListScreensByTheatre returns the screens of one theatre.
func (h *PublicHandler) ListScreensByTheatre(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Theatres.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTheatreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	screens, err := h.Screens.ListByTheatre(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicScreen, 0, len(screens))
	for _, s := range screens {
		if !s.IsActive {
			continue
		}
		out = append(out, publicScreen{ID: s.ID, Name: s.Name, SeatRows: s.SeatRows, SeatsPerRow: s.SeatsPerRow})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShowtime returns one showtime.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPublicShowtime(*s))
}

// GetSeatMap returns the live seat map of a showtime. Booking ids and
// hold expiries stay private; clients only see each seat's status.
func (h *PublicHandler) GetSeatMap(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Showtimes.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.GetByShowtime(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicSeat, 0, len(seats))
	for _, s := range seats {
		out = append(out, publicSeat{
			ID:     s.ID,
			Label:  s.Label(),
			Row:    s.RowLabel,
			Number: s.SeatNumber,
			Status: s.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": id, "seats": out})
}

func toPublicShowtime(s model.Showtime) publicShowtime {
	return publicShowtime{
		ID:             s.ID,
		MovieID:        s.MovieID,
		ScreenID:       s.ScreenID,
		StartsAt:       s.StartsAt,
		EndsAt:         s.EndsAt,
		BasePriceCents: s.BasePriceCents,
		TotalSeats:     s.TotalSeats,
		AvailableSeats: s.AvailableSeats,
	}
}
