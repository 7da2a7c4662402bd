package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/middleware"
	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/service"
	"github.com/cinetick/movie-booking/internal/store"
)

// ReservationHandler exposes the seat-hold endpoints.
type ReservationHandler struct {
	Manager *service.ReservationManager
}

func NewReservationHandler(m *service.ReservationManager) *ReservationHandler {
	return &ReservationHandler{Manager: m}
}

type reserveReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

// Reserve places a hold on the requested seats of a showtime. The
// response carries the reservation token the client later confirms or
// cancels with, plus the hold expiry.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := h.Manager.ReserveSeats(c.Request().Context(), showtimeID, req.SeatIDs, userID)
	if err != nil {
		var conflict *store.SeatConflictError
		switch {
		case errors.Is(err, service.ErrNoSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids required"})
		case errors.Is(err, repository.ErrShowtimeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, service.ErrShowtimeNotBookable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime is not open for booking"})
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seats unavailable",
				"seats": conflict.SeatIDs,
			})
		case errors.Is(err, store.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown seat for this showtime"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"token":       res.Token,
		"showtime_id": res.ShowtimeID,
		"seat_ids":    res.SeatIDs,
		"expires_at":  res.ExpiresAt,
	})
}

// Cancel releases a hold before it expires.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	err := h.Manager.CancelReservation(c.Request().Context(), token, userID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, store.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, store.ErrReservationExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "reservation expired"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
}
