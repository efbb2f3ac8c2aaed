package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/table-reservation/internal/apperr"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran first.  An anonymous caller or a caller without a listed role gets
// the same Forbidden error.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok || !id.Can(roles...) {
				return apperr.Forbidden("Admin access required")
			}
			return next(c)
		}
	}
}
