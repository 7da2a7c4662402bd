package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/service"
	"github.com/cinetick/movie-booking/internal/store"
)

type showtimeReq struct {
	MovieID        uint64 `json:"movie_id"`
	ScreenID       uint64 `json:"screen_id"`
	StartsAt       string `json:"starts_at"` // RFC 3339
	EndsAt         string `json:"ends_at"`
	BasePriceCents uint32 `json:"base_price_cents"`
}

// CreateShowtime schedules a screening and generates its seat map from
// the screen layout. Both writes share one transaction so a failure
// leaves neither behind.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MovieID == 0 || req.ScreenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id and screen_id are required"})
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
	}
	startsAt, endsAt = startsAt.UTC(), endsAt.UTC()
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if !startsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	screen, err := h.Screens.GetByID(ctx, req.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !screen.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "screen is inactive"})
	}

	overlaps, err := h.Showtimes.FindOverlapping(ctx, req.ScreenID, startsAt, endsAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "showtime overlaps an existing screening",
			"overlaps": overlaps,
		})
	}

	total := screen.SeatRows * screen.SeatsPerRow
	show := &model.Showtime{
		MovieID:        req.MovieID,
		ScreenID:       req.ScreenID,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		BasePriceCents: req.BasePriceCents,
		TotalSeats:     total,
		AvailableSeats: total,
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showtime failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Showtimes.CreateTx(ctx, tx, show); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showtime failed"})
	}
	seats := repository.GenerateMap(show.ID, screen.SeatRows, screen.SeatsPerRow)
	if err := h.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seat map failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showtime failed"})
	}
	committed = true

	// A process-memory seat store must learn about the new seat map;
	// reload the rows so the seeded copies carry their assigned IDs.
	if seeder, ok := h.Store.(store.Seeder); ok {
		rows, err := h.Seats.GetByShowtime(ctx, show.ID)
		if err != nil {
			log.Printf("admin: seed seat store for showtime %d: %v", show.ID, err)
		} else {
			seeder.AddShowtime(show.ID, rows)
		}
	}

	return c.JSON(http.StatusCreated, toPublicShowtime(*show))
}

// UpdateShowtime reschedules or reprices a screening. Rescheduling is
// refused once confirmed bookings exist; tickets already name the old
// time.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
	}
	startsAt, endsAt = startsAt.UTC(), endsAt.UTC()
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	ctx := c.Request().Context()
	show, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	rescheduled := !startsAt.Equal(show.StartsAt) || !endsAt.Equal(show.EndsAt)
	if rescheduled {
		booked, err := h.Showtimes.HasConfirmedBookings(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if booked {
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime has confirmed bookings"})
		}
		overlaps, err := h.Showtimes.FindOverlapping(ctx, show.ScreenID, startsAt, endsAt)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		others := overlaps[:0]
		for _, o := range overlaps {
			if o.ID != id {
				others = append(others, o)
			}
		}
		if len(others) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":    "showtime overlaps an existing screening",
				"overlaps": others,
			})
		}
	}

	show.StartsAt = startsAt
	show.EndsAt = endsAt
	show.BasePriceCents = req.BasePriceCents
	if err := h.Showtimes.Update(ctx, show); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update showtime failed"})
	}
	return c.JSON(http.StatusOK, toPublicShowtime(*show))
}

// DeleteShowtime removes a screening and its seat map. Screenings
// with confirmed bookings are refused.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	ctx := c.Request().Context()

	if _, err := h.Showtimes.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	booked, err := h.Showtimes.HasConfirmedBookings(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if booked {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime has confirmed bookings"})
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete showtime failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Showtimes.DeleteTx(ctx, tx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrShowtimeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime has bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete showtime failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete showtime failed"})
	}
	committed = true
	if seeder, ok := h.Store.(store.Seeder); ok {
		seeder.RemoveShowtime(id)
	}
	return c.NoContent(http.StatusNoContent)
}

type bookingStatusReq struct {
	Status string `json:"status"`
}

// UpdateBookingStatus applies an administrative booking transition,
// e.g. marking a payment FAILED or cancelling on a customer's behalf.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case model.BookingBooked, model.BookingCancelled, model.BookingFailed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	err := h.Workflow.UpdateBookingStatus(c.Request().Context(), id, status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking status changed concurrently"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
}
