// Package servicetest provides in-memory stores and a fake payment gateway
// for service and handler tests. All stores share one mutex, so the
// capacity check in CreateWithinCapacity is atomic like the MySQL version.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/payment"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// DB is the shared in-memory state.
type DB struct {
	mu          sync.Mutex
	users       []model.User
	tokens      map[string]*tokenRow
	restaurants []model.Restaurant
	bookings    []model.Booking
	now         func() time.Time
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func NewDB() *DB {
	return &DB{tokens: map[string]*tokenRow{}, now: time.Now}
}

// AddRestaurant seeds the catalog and returns the stored row.
func (d *DB) AddRestaurant(r model.Restaurant) model.Restaurant {
	d.mu.Lock()
	defer d.mu.Unlock()
	r.ID = uint64(len(d.restaurants) + 1)
	d.restaurants = append(d.restaurants, r)
	return r
}

// RenameRestaurant changes the catalog name without touching bookings.
func (d *DB) RenameRestaurant(id uint64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.restaurants {
		if d.restaurants[i].ID == id {
			d.restaurants[i].Name = name
		}
	}
}

// SetRole promotes or demotes a stored user.
func (d *DB) SetRole(id uint64, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id > 0 && int(id) <= len(d.users) {
		d.users[id-1].Role = role
	}
}

func (d *DB) Users() *Users             { return &Users{d} }
func (d *DB) Tokens() *Tokens           { return &Tokens{d} }
func (d *DB) Restaurants() *Restaurants { return &Restaurants{d} }
func (d *DB) Bookings() *Bookings       { return &Bookings{d} }

// Users implements service.UserStore.
type Users struct{ d *DB }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, e := range s.d.users {
		if e.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = uint64(len(s.d.users) + 1)
	u.CreatedAt = s.d.now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.d.users = append(s.d.users, *u)
	return nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if id == 0 || int(id) > len(s.d.users) {
		return model.User{}, repository.ErrNotFound
	}
	return s.d.users[id-1], nil
}

// Tokens implements service.TokenStore.
type Tokens struct{ d *DB }

func (s *Tokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.tokens[hash] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (s *Tokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tokens[hash]
	if !ok || t.revoked || now.After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (s *Tokens) RevokeByHash(_ context.Context, hash string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tokens[hash]
	if !ok || t.revoked {
		return repository.ErrNotFound
	}
	t.revoked = true
	return nil
}

func (s *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, t := range s.d.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

// Restaurants implements service.RestaurantStore.
type Restaurants struct{ d *DB }

func (s *Restaurants) List(_ context.Context, f repository.RestaurantFilter) ([]model.Restaurant, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	q := strings.ToLower(f.Search)
	out := []model.Restaurant{}
	for _, r := range s.d.restaurants {
		if f.Featured && !r.Featured {
			continue
		}
		if f.Cuisine != "" && r.Cuisine != f.Cuisine {
			continue
		}
		if f.PriceRange != "" && r.PriceRange != f.PriceRange {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Cuisine), q) &&
			!strings.Contains(strings.ToLower(r.Address), q) {
			continue
		}
		out = append(out, r)
	}
	switch f.Sort {
	case repository.SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case repository.SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Restaurants) GetByID(_ context.Context, id uint64) (model.Restaurant, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if id == 0 || int(id) > len(s.d.restaurants) {
		return model.Restaurant{}, repository.ErrNotFound
	}
	return s.d.restaurants[id-1], nil
}

// Bookings implements service.BookingStore.
type Bookings struct{ d *DB }

func (s *Bookings) CreateWithinCapacity(_ context.Context, nb model.NewBooking) (model.Booking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if nb.RestaurantID == 0 || int(nb.RestaurantID) > len(s.d.restaurants) {
		return model.Booking{}, repository.ErrNotFound
	}
	if nb.Capacity > 0 {
		active := 0
		for _, b := range s.d.bookings {
			if b.RestaurantID == nb.RestaurantID && b.Date == nb.Date && b.Time == nb.Time && b.Status.IsActive() {
				active++
			}
		}
		if active >= nb.Capacity {
			return model.Booking{}, repository.ErrSlotFull
		}
	}
	now := s.d.now().UTC()
	b := model.Booking{
		ID:              uint64(len(s.d.bookings) + 1),
		UserID:          nb.UserID,
		RestaurantID:    nb.RestaurantID,
		RestaurantName:  s.d.restaurants[nb.RestaurantID-1].Name,
		Date:            nb.Date,
		Time:            nb.Time,
		Guests:          nb.Guests,
		SpecialRequests: nb.SpecialRequests,
		TotalAmount:     int64(nb.Guests) * nb.PricePerGuest,
		Status:          nb.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.d.bookings = append(s.d.bookings, b)
	return b, nil
}

func (s *Bookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	b, err := s.get(id)
	if err != nil {
		return model.Booking{}, err
	}
	return *b, nil
}

func (s *Bookings) get(id uint64) (*model.Booking, error) {
	if id == 0 || int(id) > len(s.d.bookings) {
		return nil, repository.ErrNotFound
	}
	return &s.d.bookings[id-1], nil
}

func (s *Bookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.d.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Bookings) CancelForUser(_ context.Context, id, userID uint64) (model.Booking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	b, err := s.get(id)
	if err != nil || b.UserID != userID || !b.Status.CanTransitionTo(model.StatusCancelled) {
		return model.Booking{}, repository.ErrNotFound
	}
	b.Status = model.StatusCancelled
	b.UpdatedAt = s.d.now().UTC()
	return *b, nil
}

func (s *Bookings) Transition(_ context.Context, id uint64, to model.BookingStatus) (model.Booking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	b, err := s.get(id)
	if err != nil {
		return model.Booking{}, err
	}
	if !b.Status.CanTransitionTo(to) {
		return model.Booking{}, repository.ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = s.d.now().UTC()
	return *b, nil
}

func (s *Bookings) SetPaymentRef(_ context.Context, id uint64, ref string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	b, err := s.get(id)
	if err != nil {
		return err
	}
	b.PaymentRef = &ref
	return nil
}

func (s *Bookings) CountActiveBySlot(_ context.Context, restaurantID uint64, date string) (map[string]int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := map[string]int{}
	for _, b := range s.d.bookings {
		if b.RestaurantID == restaurantID && b.Date == date && b.Status.IsActive() {
			out[b.Time]++
		}
	}
	return out, nil
}

func (s *Bookings) ListAllDetailed(_ context.Context) ([]model.AdminBooking, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []model.AdminBooking{}
	for i := len(s.d.bookings) - 1; i >= 0; i-- {
		b := s.d.bookings[i]
		ab := model.AdminBooking{Booking: b, CurrentRestaurantName: b.RestaurantName}
		if b.UserID > 0 && int(b.UserID) <= len(s.d.users) {
			ab.UserName = s.d.users[b.UserID-1].Name
			ab.UserEmail = s.d.users[b.UserID-1].Email
		}
		if int(b.RestaurantID) <= len(s.d.restaurants) {
			ab.CurrentRestaurantName = s.d.restaurants[b.RestaurantID-1].Name
		}
		out = append(out, ab)
	}
	return out, nil
}

func (s *Bookings) Stats(_ context.Context) (model.BookingStats, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	st := model.BookingStats{ByStatus: map[model.BookingStatus]int64{
		model.StatusPending: 0, model.StatusConfirmed: 0, model.StatusCancelled: 0,
	}}
	active := map[uint64]bool{}
	for _, b := range s.d.bookings {
		st.TotalBookings++
		st.ByStatus[b.Status]++
		if b.Status != model.StatusCancelled {
			st.TotalRevenue += b.TotalAmount
		}
		if b.Status.IsActive() {
			active[b.RestaurantID] = true
		}
	}
	st.ActiveRestaurants = int64(len(active))
	st.PendingBookings = st.ByStatus[model.StatusPending]
	return st, nil
}

// Events records published booking events.
type Events struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	Err    error
}

func (e *Events) Publish(_ context.Context, ev queue.BookingEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, ev)
	return nil
}

// Types returns the recorded event types in publish order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

// Gateway is a fake payment gateway.
type Gateway struct {
	mu       sync.Mutex
	Requests []payment.IntentRequest
	Err      error
}

var ErrGatewayDown = errors.New("gateway down")

func (g *Gateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return payment.Intent{}, g.Err
	}
	g.Requests = append(g.Requests, req)
	id := "pi_test_" + strings.Repeat("x", len(g.Requests))
	return payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

// Last returns the most recent request.
func (g *Gateway) Last() payment.IntentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return payment.IntentRequest{}
	}
	return g.Requests[len(g.Requests)-1]
}
