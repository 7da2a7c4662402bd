package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cinetick/movie-booking/internal/model"
	"github.com/cinetick/movie-booking/internal/queue"
	"github.com/cinetick/movie-booking/internal/repository"
	"github.com/cinetick/movie-booking/internal/store"
)

// BookingReader is the slice of the booking repository the workflow
// needs for status checks and non-releasing status changes.
type BookingReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

// DetailReader loads the denormalized booking view used to build the
// confirmation event.
type DetailReader interface {
	GetDetailForUser(ctx context.Context, bookingID, userID uint64) (*repository.BookingDetail, error)
}

// UserReader resolves the customer behind a booking for notification
// purposes.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PublishFunc delivers a confirmation event to the message broker.
type PublishFunc func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// BookingWorkflow turns reservations into bookings and drives the
// booking lifecycle afterwards. Transitions that free seats go through
// the seat store so the booking row and its seats change together.
type BookingWorkflow struct {
	store     store.SeatStore
	showtimes ShowtimeReader
	bookings  BookingReader
	details   DetailReader
	users     UserReader
	publish   PublishFunc
}

// NewBookingWorkflow constructs a BookingWorkflow. publish may be nil
// when no broker is configured; confirmations then skip the event.
func NewBookingWorkflow(st store.SeatStore, showtimes ShowtimeReader, bookings BookingReader, details DetailReader, users UserReader, publish PublishFunc) *BookingWorkflow {
	return &BookingWorkflow{
		store:     st,
		showtimes: showtimes,
		bookings:  bookings,
		details:   details,
		users:     users,
		publish:   publish,
	}
}

// ConfirmBooking converts a live reservation into a booking. The seat
// store flips the held seats to BOOKED and writes the booking row in
// one transaction, so an expired or stolen hold never produces a
// booking. On success a confirmation event is published best-effort.
func (w *BookingWorkflow) ConfirmBooking(ctx context.Context, token string, userID uint64) (*model.Booking, error) {
	res, err := w.store.GetReservation(ctx, token)
	if err != nil {
		return nil, err
	}
	if res.HolderID != userID {
		return nil, ErrForbidden
	}

	st, err := w.showtimes.GetByID(ctx, res.ShowtimeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &model.Booking{
		Reference:        uuid.NewString(),
		UserID:           userID,
		ShowtimeID:       res.ShowtimeID,
		Status:           model.BookingBooked,
		TotalAmountCents: st.BasePriceCents * uint32(len(res.SeatIDs)),
		BookedAt:         now,
	}
	if err := w.store.ConfirmBooking(ctx, token, booking); err != nil {
		return nil, err
	}
	w.refreshCounter(ctx, res.ShowtimeID)
	w.publishConfirmed(booking)
	return booking, nil
}

// CancelBooking cancels a confirmed booking and frees its seats. Only
// the owner may cancel, and only while the showtime has not started.
func (w *BookingWorkflow) CancelBooking(ctx context.Context, bookingID, userID uint64) error {
	b, err := w.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != userID {
		return ErrForbidden
	}
	if b.Status != model.BookingBooked {
		return ErrBookingNotCancellable
	}

	st, err := w.showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return err
	}
	if !st.StartsAt.After(time.Now().UTC()) {
		return ErrBookingNotCancellable
	}

	if err := w.store.ReleaseBooking(ctx, bookingID, model.BookingCancelled); err != nil {
		return err
	}
	w.refreshCounter(ctx, b.ShowtimeID)
	return nil
}

// UpdateBookingStatus applies an administrative status change. A
// transition that frees seats goes through the seat store; any other
// allowed transition only touches the booking row.
func (w *BookingWorkflow) UpdateBookingStatus(ctx context.Context, bookingID uint64, newStatus string) error {
	b, err := w.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !model.CanTransition(b.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, newStatus)
	}

	if model.SeatsReleased(newStatus) {
		if err := w.store.ReleaseBooking(ctx, bookingID, newStatus); err != nil {
			return err
		}
		w.refreshCounter(ctx, b.ShowtimeID)
		return nil
	}
	return w.bookings.UpdateStatus(ctx, bookingID, newStatus)
}

func (w *BookingWorkflow) refreshCounter(ctx context.Context, showtimeID uint64) {
	if err := w.showtimes.RecomputeAvailableSeats(ctx, showtimeID); err != nil {
		log.Printf("booking: recompute available seats for showtime %d: %v", showtimeID, err)
	}
}

// publishConfirmed assembles and publishes the confirmation event in
// the background. The booking is already committed; failures here are
// logged and never surfaced to the customer.
func (w *BookingWorkflow) publishConfirmed(b *model.Booking) {
	if w.publish == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		detail, err := w.details.GetDetailForUser(ctx, b.ID, b.UserID)
		if err != nil {
			log.Printf("booking: load detail for event (booking %d): %v", b.ID, err)
			return
		}
		user, err := w.users.GetByID(ctx, b.UserID)
		if err != nil {
			log.Printf("booking: load user for event (booking %d): %v", b.ID, err)
			return
		}

		labels := make([]string, 0, len(detail.Seats))
		for _, s := range detail.Seats {
			labels = append(labels, fmt.Sprintf("%s%d", s.RowLabel, s.SeatNumber))
		}
		ev := queue.BookingConfirmedEvent{
			BookingID:        b.ID,
			Reference:        b.Reference,
			UserID:           b.UserID,
			UserEmail:        user.Email,
			ShowtimeID:       b.ShowtimeID,
			MovieTitle:       detail.MovieTitle,
			TheatreName:      detail.TheatreName,
			TheatreCity:      detail.TheatreCity,
			ScreenName:       detail.ScreenName,
			StartsAt:         detail.StartsAt.Format(time.RFC3339),
			EndsAt:           detail.EndsAt.Format(time.RFC3339),
			SeatLabels:       labels,
			TotalAmountCents: b.TotalAmountCents,
			ConfirmedAt:      b.BookedAt.Format(time.RFC3339),
		}
		if err := w.publish(ctx, ev); err != nil {
			log.Printf("booking: publish confirmation for %s: %v", b.Reference, err)
		}
	}()
}
