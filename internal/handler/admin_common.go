package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/service"
	"github.com/cinetick/movie-booking/internal/store"
)

// AdminHandler bundles the repositories behind the catalogue
// management endpoints. Routes using it sit behind the ADMIN role
// check. Store receives seat-map add/remove notifications when the
// configured backend keeps seat state in process memory.
type AdminHandler struct {
	Movies    *repository.MovieRepo
	Theatres  *repository.TheatreRepo
	Screens   *repository.ScreenRepo
	Showtimes *repository.ShowtimeRepo
	Seats     *repository.SeatRepo
	Workflow  *service.BookingWorkflow
	Store     store.SeatStore
}

func NewAdminHandler(
	movies *repository.MovieRepo,
	theatres *repository.TheatreRepo,
	screens *repository.ScreenRepo,
	showtimes *repository.ShowtimeRepo,
	seats *repository.SeatRepo,
	workflow *service.BookingWorkflow,
	st store.SeatStore,
) *AdminHandler {
	return &AdminHandler{
		Movies:    movies,
		Theatres:  theatres,
		Screens:   screens,
		Showtimes: showtimes,
		Seats:     seats,
		Workflow:  workflow,
		Store:     st,
	}
}

// pathID parses the :id path parameter; the bool reports success and
// a 400 response has already been written on failure.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
