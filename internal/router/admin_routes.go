package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterAdmin registers the admin dashboard under /api/admin. Every route
// requires a valid JWT and the admin role.
func RegisterAdmin(api *echo.Group, h *handler.AdminHandler, v middleware.TokenVerifier) {
	g := api.Group(
		"/admin",
		middleware.JWTAuth(v),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings", h.ListBookings)
	g.PUT("/bookings/:id/status", h.UpdateStatus)
	g.GET("/stats", h.Stats)
}
