package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/repository"
)

type movieReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Genre       string  `json:"genre"`
	DurationMin uint32  `json:"duration_min"`
	Language    string  `json:"language"`
	StartDate   string  `json:"start_date"` // YYYY-MM-DD
	EndDate     string  `json:"end_date"`
}

func (r *movieReq) validate() (*model.Movie, string) {
	r.Title = strings.TrimSpace(r.Title)
	r.Genre = strings.TrimSpace(r.Genre)
	r.Language = strings.TrimSpace(r.Language)
	if r.Title == "" {
		return nil, "title is required"
	}
	if r.DurationMin == 0 {
		return nil, "duration_min must be positive"
	}
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return nil, "invalid start_date, want YYYY-MM-DD"
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return nil, "invalid end_date, want YYYY-MM-DD"
	}
	if end.Before(start) {
		return nil, "end_date must not precede start_date"
	}
	return &model.Movie{
		Title:       r.Title,
		Description: r.Description,
		Genre:       r.Genre,
		DurationMin: r.DurationMin,
		Language:    r.Language,
		StartDate:   start,
		EndDate:     end,
	}, ""
}

// CreateMovie adds a title to the catalogue. Status is derived from
// the availability window, never taken from the request.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, toPublicMovie(*m))
}

// UpdateMovie overwrites the mutable fields of a movie.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	m.ID = id
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update movie failed"})
	}
	return c.JSON(http.StatusOK, toPublicMovie(*m))
}

// DeleteMovie removes a movie without showtimes. Scheduled titles are
// refused with 409.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	err := h.Movies.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie has showtimes"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete movie failed"})
}
