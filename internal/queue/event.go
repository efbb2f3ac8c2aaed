// Package queue carries booking lifecycle events over RabbitMQ: the
// payload type, a publisher used by the API and the consumer run by the
// worker binary.
package queue

import (
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Event types.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingConfirmed = "booking.confirmed"
)

// BookingEventsQueue is the durable queue every booking event goes to.
const BookingEventsQueue = "booking.events"

// BookingEvent is published whenever a booking changes state. It carries
// enough for consumers to log or notify without querying the database.
type BookingEvent struct {
	Type           string `json:"type"`
	BookingID      uint64 `json:"booking_id"`
	UserID         uint64 `json:"user_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Guests         int    `json:"guests"`
	TotalAmount    int64  `json:"total_amount"`
	Status         string `json:"status"`
	OccurredAt     string `json:"occurred_at"`
}

// NewBookingEvent snapshots b as an event of the given type.
func NewBookingEvent(typ string, b model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:           typ,
		BookingID:      b.ID,
		UserID:         b.UserID,
		RestaurantID:   b.RestaurantID,
		RestaurantName: b.RestaurantName,
		Date:           b.Date,
		Time:           b.Time,
		Guests:         b.Guests,
		TotalAmount:    b.TotalAmount,
		Status:         string(b.Status),
		OccurredAt:     at.UTC().Format(time.RFC3339),
	}
}
