package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/middleware"
	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/service"
	"github.com/cinetick/movie-booking/internal/store"
)

// BookingHandler exposes the customer booking endpoints.
type BookingHandler struct {
	Workflow *service.BookingWorkflow
	Bookings *repository.BookingRepo
}

func NewBookingHandler(w *service.BookingWorkflow, b *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Workflow: w, Bookings: b}
}

type confirmReq struct {
	ReservationToken string `json:"reservation_token"`
}

// Confirm turns a live reservation into a booking.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ReservationToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_token required"})
	}
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	b, err := h.Workflow.ConfirmBooking(c.Request().Context(), strings.TrimSpace(req.ReservationToken), userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, store.ErrReservationExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": "reservation expired"})
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":                 b.ID,
		"reference":          b.Reference,
		"showtime_id":        b.ShowtimeID,
		"status":             b.Status,
		"total_amount_cents": b.TotalAmountCents,
		"booked_at":          b.BookedAt,
	})
}

// List returns the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one booking with its seats; only the owner may read it.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	d, err := h.Bookings.GetDetailForUser(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// Cancel cancels a confirmed booking and frees its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	err = h.Workflow.CancelBooking(c.Request().Context(), id, userID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrBookingNotCancellable), errors.Is(err, store.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer be cancelled"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
}
