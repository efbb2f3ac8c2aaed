package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/service"
)

// AdminHandler serves the admin dashboard. Routes are guarded by
// RequireRole; the services check the role again.
type AdminHandler struct {
	Bookings *service.BookingService
	Reports  *service.ReportService
	Timeout  time.Duration
}

func NewAdminHandler(bookings *service.BookingService, reports *service.ReportService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Reports: reports, Timeout: timeout}
}

type statusReq struct {
	Status string `json:"status"`
}

// ListBookings handles GET /api/admin/bookings
func (h *AdminHandler) ListBookings(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	rows, err := h.Bookings.ListAllForAdmin(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	st, err := h.Reports.Stats(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// UpdateStatus handles PUT /api/admin/bookings/:id/status
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return apperr.NotFound("Booking not found")
	}
	var req statusReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.UpdateStatus(ctx, caller, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}
