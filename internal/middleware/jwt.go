package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
)

// TokenVerifier turns a raw access token into an identity. The auth service
// implements it.
type TokenVerifier interface {
	Verify(raw string) (model.Identity, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// present reports whether an Authorization header was sent at all.
func bearerToken(c echo.Context) (token string, present bool) {
	auth := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if auth == "" {
		return "", false
	}
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", true
	}
	return strings.TrimSpace(auth[7:]), true
}

// JWTAuth returns an Echo middleware that requires a valid Bearer access
// token and stores the verified identity on the context.  A missing or
// non-Bearer header is Unauthenticated; a bad signature, algorithm or
// expiry is InvalidToken.  Errors are rendered by the central error handler.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, _ := bearerToken(c)
			if raw == "" {
				return apperr.New(apperr.KindUnauthenticated, "Access token required")
			}
			id, err := v.Verify(raw)
			if err != nil {
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// OptionalJWT authenticates the request when an Authorization header is
// present and lets anonymous requests through.  A header that is present
// but invalid is still rejected.
func OptionalJWT(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, present := bearerToken(c)
			if !present {
				return next(c)
			}
			if raw == "" {
				return apperr.New(apperr.KindUnauthenticated, "Access token required")
			}
			id, err := v.Verify(raw)
			if err != nil {
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// IdentifyCaller records the caller's identity when a valid bearer token is
// sent and otherwise does nothing. It runs ahead of the rate limiter so the
// limit key can include the user; route-level JWTAuth still enforces
// authentication.
func IdentifyCaller(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, _ := bearerToken(c); raw != "" {
				if id, err := v.Verify(raw); err == nil {
					SetIdentity(c, id)
				}
			}
			return next(c)
		}
	}
}
