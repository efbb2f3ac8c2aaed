package model

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// transitions lists every legal edge. cancelled has none.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// ParseBookingStatus accepts the lower-case wire names only.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(strings.TrimSpace(s)); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func (s BookingStatus) Valid() bool {
	_, err := ParseBookingStatus(string(s))
	return err == nil
}

// IsActive reports whether a booking in this state holds a slot.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether s -> next is a legal edge.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// SourcesFor returns every status that may move to target, in a stable
// order. Repositories use it to build conditional UPDATEs.
func SourcesFor(target BookingStatus) []BookingStatus {
	var out []BookingStatus
	for _, from := range []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled} {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

// ActiveStatuses are the states counted against slot capacity.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusConfirmed}
}

// Booking records a user's table reservation at a restaurant.
// RestaurantName is a snapshot taken from the catalog at creation time.
// TotalAmount is computed by the server in whole currency units.
type Booking struct {
	ID              uint64        `json:"id"`
	UserID          uint64        `json:"userId"`
	RestaurantID    uint64        `json:"restaurantId"`
	RestaurantName  string        `json:"restaurantName"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	Guests          int           `json:"guests"`
	SpecialRequests string        `json:"specialRequests"`
	TotalAmount     int64         `json:"totalAmount"`
	Status          BookingStatus `json:"status"`
	PaymentRef      *string       `json:"paymentRef,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// AdminBooking is a booking joined with its owner and the current
// restaurant name.
type AdminBooking struct {
	Booking
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	// CurrentRestaurantName comes from the catalog at query time; it may
	// differ from the snapshot.
	CurrentRestaurantName string `json:"currentRestaurantName"`
}

// BookingStats aggregates the admin dashboard counters.
type BookingStats struct {
	TotalBookings     int64                   `json:"totalBookings"`
	TotalRevenue      int64                   `json:"totalRevenue"`
	ActiveRestaurants int64                   `json:"activeRestaurants"`
	PendingBookings   int64                   `json:"pendingBookings"`
	ByStatus          map[BookingStatus]int64 `json:"byStatus"`
}

// NewBooking carries the validated fields a repository needs to insert.
type NewBooking struct {
	UserID          uint64
	RestaurantID    uint64
	Date            string
	Time            string
	Guests          int
	SpecialRequests string
	PricePerGuest   int64
	Status          BookingStatus
	// Capacity is the maximum number of active bookings per slot; 0 means unlimited.
	Capacity int
}

// NormalizeTime accepts "HH:MM" (24h) or "h:MM AM/PM" and returns "HH:MM".
func NormalizeTime(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
