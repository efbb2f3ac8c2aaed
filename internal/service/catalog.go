package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// MaxListLimit caps the catalog page size.
const MaxListLimit = 100

// ListParams are the raw catalog query parameters.
type ListParams struct {
	Featured   string
	Cuisine    string
	PriceRange string
	Search     string
	Sort       string
	Limit      string
}

// CatalogService serves the read-only restaurant catalog and slot
// availability.
type CatalogService struct {
	restaurants RestaurantStore
	bookings    BookingStore
	slots       []string
	capacity    int
}

func NewCatalogService(restaurants RestaurantStore, bookings BookingStore, slots []string, capacity int) *CatalogService {
	return &CatalogService{restaurants: restaurants, bookings: bookings, slots: slots, capacity: capacity}
}

// ParseListParams validates raw query values into a repository filter.
// Unknown sort keys fall back to the default order.
func ParseListParams(p ListParams) (repository.RestaurantFilter, error) {
	f := repository.RestaurantFilter{
		Featured:   strings.EqualFold(strings.TrimSpace(p.Featured), "true"),
		Cuisine:    strings.TrimSpace(p.Cuisine),
		PriceRange: strings.TrimSpace(p.PriceRange),
		Search:     strings.TrimSpace(p.Search),
	}
	switch strings.ToLower(strings.TrimSpace(p.Sort)) {
	case repository.SortRating:
		f.Sort = repository.SortRating
	case repository.SortName:
		f.Sort = repository.SortName
	}
	if s := strings.TrimSpace(p.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return repository.RestaurantFilter{}, apperr.Validation("limit must be a positive integer")
		}
		f.Limit = min(n, MaxListLimit)
	}
	return f, nil
}

func (s *CatalogService) List(ctx context.Context, p ListParams) ([]model.Restaurant, error) {
	f, err := ParseListParams(p)
	if err != nil {
		return nil, err
	}
	out, err := s.restaurants.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list restaurants failed", err)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Restaurant{}, apperr.NotFound("Restaurant not found")
	}
	if err != nil {
		return model.Restaurant{}, apperr.Internal("load restaurant failed", err)
	}
	return r, nil
}

// TimeSlots reports availability for every configured slot on date.
func (s *CatalogService) TimeSlots(ctx context.Context, restaurantID uint64, date string) ([]model.TimeSlot, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}
	if _, err := s.Get(ctx, restaurantID); err != nil {
		return nil, err
	}
	counts, err := s.bookings.CountActiveBySlot(ctx, restaurantID, date)
	if err != nil {
		return nil, apperr.Internal("count slots failed", err)
	}

	out := make([]model.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		ts := model.TimeSlot{Time: slot, Available: true, Remaining: -1}
		if s.capacity > 0 {
			ts.Remaining = max(s.capacity-counts[slot], 0)
			ts.Available = ts.Remaining > 0
		}
		out = append(out, ts)
	}
	return out, nil
}
