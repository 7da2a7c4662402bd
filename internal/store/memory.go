package store

import (
	"context"
	"sync"
	"time"

	"github.com/cinetick/movie-booking/internal/model"
)

// MemorySeatStore implements SeatStore entirely in memory.  A single
// mutex serializes every transition, which trivially satisfies the
// single-writer-per-seat contract; the MySQL store is the production
// implementation, this one backs the test suite and DB-less
// development of the reservation flow.
type MemorySeatStore struct {
	mu            sync.Mutex
	seats         map[uint64]*model.Seat          // seat id -> seat
	byShowtime    map[uint64][]uint64             // showtime id -> seat ids in layout order
	reservations  map[string]*model.Reservation   // token -> active hold
	bookings      map[uint64]*model.Booking       // booking id -> record
	bookingSeats  map[uint64][]model.BookingSeat  // booking id -> purchased seats
	nextBookingID uint64
}

// NewMemory returns an empty MemorySeatStore.
func NewMemory() *MemorySeatStore {
	return &MemorySeatStore{
		seats:        make(map[uint64]*model.Seat),
		byShowtime:   make(map[uint64][]uint64),
		reservations: make(map[string]*model.Reservation),
		bookings:     make(map[uint64]*model.Booking),
		bookingSeats: make(map[uint64][]model.BookingSeat),
	}
}

// AddShowtime seeds the store with a showtime's seat map.  Seats are
// stored by value copy so callers cannot mutate store state.
func (s *MemorySeatStore) AddShowtime(showtimeID uint64, seats []model.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range seats {
		seat := seats[i]
		seat.ShowtimeID = showtimeID
		s.seats[seat.ID] = &seat
		s.byShowtime[showtimeID] = append(s.byShowtime[showtimeID], seat.ID)
	}
}

// Load seeds the store from seat rows, grouping them by their own
// ShowtimeID.  Used at startup to hydrate the memory backend from
// the seats table.
func (s *MemorySeatStore) Load(seats []model.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range seats {
		seat := seats[i]
		s.seats[seat.ID] = &seat
		s.byShowtime[seat.ShowtimeID] = append(s.byShowtime[seat.ShowtimeID], seat.ID)
	}
}

// RemoveShowtime drops a showtime's seat map together with any holds
// still referencing it.
func (s *MemorySeatStore) RemoveShowtime(showtimeID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byShowtime[showtimeID] {
		delete(s.seats, id)
	}
	delete(s.byShowtime, showtimeID)
	for token, r := range s.reservations {
		if r.ShowtimeID == showtimeID {
			delete(s.reservations, token)
		}
	}
}

// Seat returns a copy of one seat record.
func (s *MemorySeatStore) Seat(id uint64) (model.Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok {
		return model.Seat{}, false
	}
	return *seat, true
}

// Booking returns a copy of a booking record written by
// ConfirmBooking.
func (s *MemorySeatStore) Booking(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, false
	}
	return *b, true
}

func (s *MemorySeatStore) TryReserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, holderID uint64, ttl time.Duration) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(seatIDs) == 0 {
		return nil, ErrSeatNotFound
	}
	now := time.Now().UTC()
	s.sweepLocked(now)

	// Validate the whole set before touching any seat.
	var conflicts []uint64
	for _, id := range seatIDs {
		seat, ok := s.seats[id]
		if !ok || seat.ShowtimeID != showtimeID {
			return nil, ErrSeatNotFound
		}
		if seat.Status != model.SeatAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatConflictError{SeatIDs: conflicts}
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(ttl)
	for _, id := range seatIDs {
		seat := s.seats[id]
		seat.Status = model.SeatReserved
		exp := expiresAt
		seat.ReservedUntil = &exp
		seat.BookingID = nil
		seat.UpdatedAt = now
	}
	resv := &model.Reservation{
		Token:      token,
		ShowtimeID: showtimeID,
		SeatIDs:    append([]uint64(nil), seatIDs...),
		HolderID:   holderID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	s.reservations[token] = resv
	out := *resv
	return &out, nil
}

func (s *MemorySeatStore) GetReservation(ctx context.Context, token string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resv, ok := s.reservations[token]
	if !ok {
		return nil, ErrReservationNotFound
	}
	if resv.Expired(time.Now().UTC()) {
		return nil, ErrReservationExpired
	}
	out := *resv
	out.SeatIDs = append([]uint64(nil), resv.SeatIDs...)
	return &out, nil
}

func (s *MemorySeatStore) ConfirmBooking(ctx context.Context, token string, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resv, ok := s.reservations[token]
	if !ok {
		return ErrReservationNotFound
	}
	now := time.Now().UTC()
	if resv.Expired(now) {
		s.releaseLocked(resv.SeatIDs, now)
		delete(s.reservations, token)
		return ErrReservationExpired
	}

	s.nextBookingID++
	booking.ID = s.nextBookingID
	for _, id := range resv.SeatIDs {
		seat := s.seats[id]
		seat.Status = model.SeatBooked
		bid := booking.ID
		seat.BookingID = &bid
		seat.ReservedUntil = nil
		seat.UpdatedAt = now
	}
	rec := *booking
	s.bookings[booking.ID] = &rec
	perSeat := booking.TotalAmountCents / uint32(len(resv.SeatIDs))
	for _, id := range resv.SeatIDs {
		s.bookingSeats[booking.ID] = append(s.bookingSeats[booking.ID], model.BookingSeat{
			BookingID:  booking.ID,
			ShowtimeID: resv.ShowtimeID,
			SeatID:     id,
			PriceCents: perSeat,
			CreatedAt:  now,
		})
	}
	delete(s.reservations, token)
	return nil
}

func (s *MemorySeatStore) CancelReservation(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resv, ok := s.reservations[token]
	if !ok {
		return ErrReservationNotFound
	}
	now := time.Now().UTC()
	expired := resv.Expired(now)
	s.releaseLocked(resv.SeatIDs, now)
	delete(s.reservations, token)
	if expired {
		return ErrReservationExpired
	}
	return nil
}

func (s *MemorySeatStore) ReleaseBooking(ctx context.Context, bookingID uint64, newStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrBookingNotFound
	}
	if !model.CanTransition(b.Status, newStatus) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	b.Status = newStatus
	b.UpdatedAt = now
	for _, seat := range s.seats {
		if seat.BookingID != nil && *seat.BookingID == bookingID && seat.Status == model.SeatBooked {
			seat.Status = model.SeatAvailable
			seat.BookingID = nil
			seat.ReservedUntil = nil
			seat.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemorySeatStore) Release(ctx context.Context, showtimeID uint64, seatIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range seatIDs {
		seat, ok := s.seats[id]
		if !ok || seat.ShowtimeID != showtimeID {
			continue
		}
		if seat.Status == model.SeatReserved || seat.Status == model.SeatBooked {
			seat.Status = model.SeatAvailable
			seat.BookingID = nil
			seat.ReservedUntil = nil
			seat.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemorySeatStore) SweepExpired(ctx context.Context, now time.Time) (int, []uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	released, showtimes := s.sweepLocked(now)
	return released, showtimes, nil
}

// sweepLocked releases every lapsed hold.  Caller holds s.mu.
func (s *MemorySeatStore) sweepLocked(now time.Time) (int, []uint64) {
	released := 0
	showtimeSet := make(map[uint64]struct{})
	for token, resv := range s.reservations {
		if !resv.Expired(now) {
			continue
		}
		for _, id := range resv.SeatIDs {
			if seat, ok := s.seats[id]; ok && seat.Status == model.SeatReserved {
				seat.Status = model.SeatAvailable
				seat.BookingID = nil
				seat.ReservedUntil = nil
				seat.UpdatedAt = now
				released++
			}
		}
		showtimeSet[resv.ShowtimeID] = struct{}{}
		delete(s.reservations, token)
	}
	showtimes := make([]uint64, 0, len(showtimeSet))
	for sid := range showtimeSet {
		showtimes = append(showtimes, sid)
	}
	return released, showtimes
}

// releaseLocked returns RESERVED seats to AVAILABLE.  Caller holds
// s.mu.
func (s *MemorySeatStore) releaseLocked(seatIDs []uint64, now time.Time) {
	for _, id := range seatIDs {
		if seat, ok := s.seats[id]; ok && seat.Status == model.SeatReserved {
			seat.Status = model.SeatAvailable
			seat.BookingID = nil
			seat.ReservedUntil = nil
			seat.UpdatedAt = now
		}
	}
}
