package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/repository"
)

type theatreReq struct {
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

// CreateTheatre adds a venue.
func (h *AdminHandler) CreateTheatre(c echo.Context) error {
	var req theatreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}
	t := &model.Theatre{Name: req.Name, City: req.City, Address: req.Address, IsActive: true}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Theatres.Create(c.Request().Context(), t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theatre already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create theatre failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTheatre overwrites name, city, address and active flag.
func (h *AdminHandler) UpdateTheatre(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	ctx := c.Request().Context()
	t, err := h.Theatres.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTheatreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var req theatreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		t.Name = name
	}
	if city := strings.TrimSpace(req.City); city != "" {
		t.City = city
	}
	if req.Address != nil {
		t.Address = req.Address
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Theatres.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theatre already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update theatre failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTheatre removes a venue without screens.
func (h *AdminHandler) DeleteTheatre(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	err := h.Theatres.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrTheatreNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "theatre has screens"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete theatre failed"})
}

type screenReq struct {
	TheatreID   uint64 `json:"theatre_id"`
	Name        string `json:"name"`
	SeatRows    uint32 `json:"seat_rows"`
	SeatsPerRow uint32 `json:"seats_per_row"`
}

// CreateScreen adds an auditorium with its seat layout template. The
// layout is fixed once showtimes exist, so it is validated up front.
func (h *AdminHandler) CreateScreen(c echo.Context) error {
	var req screenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.TheatreID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "theatre_id and name are required"})
	}
	if req.SeatRows == 0 || req.SeatsPerRow == 0 || req.SeatRows > 50 || req.SeatsPerRow > 50 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_rows and seats_per_row must be 1..50"})
	}

	s := &model.Screen{
		TheatreID:   req.TheatreID,
		Name:        req.Name,
		SeatRows:    req.SeatRows,
		SeatsPerRow: req.SeatsPerRow,
		IsActive:    true,
	}
	err := h.Screens.Create(c.Request().Context(), s)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, s)
	case errors.Is(err, repository.ErrTheatreNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "screen already exists"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create screen failed"})
}

type screenUpdateReq struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// UpdateScreen renames an auditorium or toggles its active flag. The
// seat layout cannot change; seat maps were generated from it.
func (h *AdminHandler) UpdateScreen(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	var req screenUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	s, err := h.Screens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		s.Name = name
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}

	err = h.Screens.Update(ctx, s)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, s)
	case errors.Is(err, repository.ErrScreenNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "screen name already exists"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update screen failed"})
}

// DeleteScreen removes an auditorium without showtimes.
func (h *AdminHandler) DeleteScreen(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	err := h.Screens.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrScreenNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "screen has showtimes"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete screen failed"})
}
