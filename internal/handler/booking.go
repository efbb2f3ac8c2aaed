package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/service"
)

// BookingHandler serves the authenticated customer's bookings.
type BookingHandler struct {
	Bookings *service.BookingService
	Timeout  time.Duration
}

func NewBookingHandler(bookings *service.BookingService, timeout time.Duration) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Timeout: timeout}
}

// createBookingReq mirrors the web client's payload. restaurantName and
// totalAmount are accepted but ignored: both are derived server-side.
type createBookingReq struct {
	RestaurantID    flexID  `json:"restaurantId"`
	RestaurantName  string  `json:"restaurantName"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Guests          flexInt `json:"guests"`
	SpecialRequests string  `json:"specialRequests"`
	TotalAmount     any     `json:"totalAmount"`
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	var req createBookingReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.Create(ctx, caller, service.CreateBookingInput{
		RestaurantID:    uint64(req.RestaurantID),
		Date:            req.Date,
		Time:            req.Time,
		Guests:          int(req.Guests),
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /api/bookings/user
func (h *BookingHandler) ListMine(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	list, err := h.Bookings.ListForUser(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Cancel handles PUT /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return apperr.NotFound("Booking not found")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.Cancel(ctx, caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}
