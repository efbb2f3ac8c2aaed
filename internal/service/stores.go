// Package service holds the business rules. Services depend on the small
// store interfaces below so that tests can swap MySQL for in-memory fakes;
// the repository package satisfies them in production.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/payment"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type RestaurantStore interface {
	List(ctx context.Context, f repository.RestaurantFilter) ([]model.Restaurant, error)
	GetByID(ctx context.Context, id uint64) (model.Restaurant, error)
}

type BookingStore interface {
	CreateWithinCapacity(ctx context.Context, nb model.NewBooking) (model.Booking, error)
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	CancelForUser(ctx context.Context, id, userID uint64) (model.Booking, error)
	Transition(ctx context.Context, id uint64, to model.BookingStatus) (model.Booking, error)
	SetPaymentRef(ctx context.Context, id uint64, ref string) error
	CountActiveBySlot(ctx context.Context, restaurantID uint64, date string) (map[string]int, error)
	ListAllDetailed(ctx context.Context) ([]model.AdminBooking, error)
	Stats(ctx context.Context) (model.BookingStats, error)
}

// EventPublisher delivers booking events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (payment.Intent, error)
}

// Compile-time checks that the MySQL repositories satisfy the stores.
var (
	_ UserStore       = (*repository.UserRepo)(nil)
	_ TokenStore      = (*repository.TokenRepo)(nil)
	_ RestaurantStore = (*repository.RestaurantRepo)(nil)
	_ BookingStore    = (*repository.BookingRepo)(nil)
	_ EventPublisher  = (*queue.Publisher)(nil)
	_ EventPublisher  = queue.NopPublisher{}
	_ PaymentGateway  = (*payment.Stripe)(nil)
)
