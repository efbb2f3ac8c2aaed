package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/service"
)

// RestaurantHandler serves the public catalog.
type RestaurantHandler struct {
	Catalog *service.CatalogService
	Timeout time.Duration
}

func NewRestaurantHandler(catalog *service.CatalogService, timeout time.Duration) *RestaurantHandler {
	return &RestaurantHandler{Catalog: catalog, Timeout: timeout}
}

// List handles GET /api/restaurants?featured=&cuisine=&priceRange=&search=&sort=&limit=
func (h *RestaurantHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	list, err := h.Catalog.List(ctx, service.ListParams{
		Featured:   c.QueryParam("featured"),
		Cuisine:    c.QueryParam("cuisine"),
		PriceRange: c.QueryParam("priceRange"),
		Search:     c.QueryParam("search"),
		Sort:       c.QueryParam("sort"),
		Limit:      c.QueryParam("limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/restaurants/:id
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return apperr.NotFound("Restaurant not found")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	r, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// TimeSlots handles GET /api/restaurants/:id/timeslots?date=YYYY-MM-DD
func (h *RestaurantHandler) TimeSlots(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return apperr.NotFound("Restaurant not found")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	slots, err := h.Catalog.TimeSlots(ctx, id, c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slots)
}
