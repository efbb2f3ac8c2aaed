package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/metrics"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
)

const (
	dateLayout         = "2006-01-02"
	MaxSpecialRequests = 500
	publishTimeout     = 2 * time.Second
)

// BookingPolicy is the reservation rule set taken from configuration.
type BookingPolicy struct {
	PricePerGuest int64
	MaxGuests     int
	SlotCapacity  int // 0 = unlimited
	InitialStatus model.BookingStatus
	Location      *time.Location // "today" is evaluated here
}

// BookingService owns the booking lifecycle.
type BookingService struct {
	bookings BookingStore
	events   EventPublisher
	policy   BookingPolicy
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, events EventPublisher, policy BookingPolicy, m *metrics.Metrics, log zerolog.Logger) *BookingService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if !policy.InitialStatus.IsActive() {
		policy.InitialStatus = model.StatusConfirmed
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &BookingService{bookings: bookings, events: events, policy: policy, metrics: m, log: log, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

type CreateBookingInput struct {
	RestaurantID    uint64
	Date            string
	Time            string
	Guests          int
	SpecialRequests string
}

// validate checks the input against the policy and returns the normalised
// date and time.
func (s *BookingService) validate(in CreateBookingInput) (string, string, error) {
	if in.RestaurantID == 0 {
		return "", "", apperr.Validation("restaurantId is required")
	}
	if in.Guests < 1 || in.Guests > s.policy.MaxGuests {
		return "", "", apperr.Validation("guests must be between 1 and " + strconv.Itoa(s.policy.MaxGuests))
	}
	date := strings.TrimSpace(in.Date)
	if _, err := time.ParseInLocation(dateLayout, date, s.policy.Location); err != nil {
		return "", "", apperr.Validation("date must be YYYY-MM-DD")
	}
	today := s.now().In(s.policy.Location).Format(dateLayout)
	if date < today {
		return "", "", apperr.Validation("date must not be in the past")
	}
	hhmm, ok := model.NormalizeTime(in.Time)
	if !ok {
		return "", "", apperr.Validation("time must be HH:MM")
	}
	if utf8.RuneCountInString(in.SpecialRequests) > MaxSpecialRequests {
		return "", "", apperr.Validation("specialRequests must be at most 500 characters")
	}
	return date, hhmm, nil
}

// Create validates the request, then inserts the booking under the slot
// capacity check. The amount is always computed here; the restaurant name
// is snapshotted from the catalog by the store.
func (s *BookingService) Create(ctx context.Context, caller model.Identity, in CreateBookingInput) (model.Booking, error) {
	if caller.ID == 0 {
		return model.Booking{}, apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	date, hhmm, err := s.validate(in)
	if err != nil {
		return model.Booking{}, err
	}

	b, err := s.bookings.CreateWithinCapacity(ctx, model.NewBooking{
		UserID:          caller.ID,
		RestaurantID:    in.RestaurantID,
		Date:            date,
		Time:            hhmm,
		Guests:          in.Guests,
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		PricePerGuest:   s.policy.PricePerGuest,
		Status:          s.policy.InitialStatus,
		Capacity:        s.policy.SlotCapacity,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Booking{}, apperr.NotFound("Restaurant not found")
	case errors.Is(err, repository.ErrSlotFull):
		s.metrics.SlotRejected()
		return model.Booking{}, apperr.New(apperr.KindSlotUnavailable, "Selected time slot is fully booked")
	case err != nil:
		return model.Booking{}, apperr.Internal("create booking failed", err)
	}

	s.metrics.BookingCreated()
	s.log.Info().
		Uint64("booking_id", b.ID).
		Uint64("user_id", b.UserID).
		Uint64("restaurant_id", b.RestaurantID).
		Str("slot", b.Date+" "+b.Time).
		Int("guests", b.Guests).
		Msg("booking created")
	s.publish(ctx, queue.EventBookingCreated, b)
	return b, nil
}

func (s *BookingService) ListForUser(ctx context.Context, caller model.Identity) ([]model.Booking, error) {
	if caller.ID == 0 {
		return nil, apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	out, err := s.bookings.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("list bookings failed", err)
	}
	return out, nil
}

// Cancel cancels an owned, active booking. Missing, foreign and already
// cancelled bookings are all reported as not found.
func (s *BookingService) Cancel(ctx context.Context, caller model.Identity, bookingID uint64) (model.Booking, error) {
	if caller.ID == 0 {
		return model.Booking{}, apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	b, err := s.bookings.CancelForUser(ctx, bookingID, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, apperr.NotFound("Booking not found")
	}
	if err != nil {
		return model.Booking{}, apperr.Internal("cancel booking failed", err)
	}
	s.metrics.BookingCancelled()
	s.log.Info().Uint64("booking_id", b.ID).Uint64("user_id", caller.ID).Msg("booking cancelled")
	s.publish(ctx, queue.EventBookingCancelled, b)
	return b, nil
}

// ListAllForAdmin returns every booking joined with its owner.
func (s *BookingService) ListAllForAdmin(ctx context.Context, caller model.Identity) ([]model.AdminBooking, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin access required")
	}
	out, err := s.bookings.ListAllDetailed(ctx)
	if err != nil {
		return nil, apperr.Internal("list bookings failed", err)
	}
	return out, nil
}

// UpdateStatus lets an admin move a booking along the transition table.
func (s *BookingService) UpdateStatus(ctx context.Context, caller model.Identity, bookingID uint64, status string) (model.Booking, error) {
	if !caller.IsAdmin() {
		return model.Booking{}, apperr.Forbidden("Admin access required")
	}
	to, err := model.ParseBookingStatus(status)
	if err != nil {
		return model.Booking{}, apperr.Validation("status must be one of pending, confirmed, cancelled")
	}
	b, err := s.bookings.Transition(ctx, bookingID, to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Booking{}, apperr.NotFound("Booking not found")
	case errors.Is(err, repository.ErrInvalidTransition):
		return model.Booking{}, apperr.New(apperr.KindInvalidTransition, "Booking cannot move to "+string(to))
	case err != nil:
		return model.Booking{}, apperr.Internal("update booking status failed", err)
	}

	s.metrics.StatusSet(string(to))
	s.log.Info().Uint64("booking_id", b.ID).Uint64("admin_id", caller.ID).Str("status", string(to)).Msg("booking status updated")
	switch to {
	case model.StatusConfirmed:
		s.publish(ctx, queue.EventBookingConfirmed, b)
	case model.StatusCancelled:
		s.metrics.BookingCancelled()
		s.publish(ctx, queue.EventBookingCancelled, b)
	}
	return b, nil
}

// publish sends an event without failing the caller. The request context
// may already be done once the response is written, so the publish gets
// its own short deadline.
func (s *BookingService) publish(ctx context.Context, typ string, b model.Booking) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, queue.NewBookingEvent(typ, b, s.now())); err != nil {
		s.metrics.PublishFailed()
		s.log.Warn().Err(err).Str("event", typ).Uint64("booking_id", b.ID).Msg("publish booking event failed")
	}
}
