package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterCustomer registers booking endpoints under /api/bookings. All
// routes require a valid JWT. Admins may book too; ownership is checked in
// the service.
func RegisterCustomer(api *echo.Group, h *handler.BookingHandler, v middleware.TokenVerifier) {
	g := api.Group(
		"/bookings",
		middleware.JWTAuth(v),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.POST("", h.Create)
	g.GET("/user", h.ListMine)
	g.PUT("/:id/cancel", h.Cancel)
}
