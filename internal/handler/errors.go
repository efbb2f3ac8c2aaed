package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// ErrorHandler renders every error returned by handlers and middleware as
// {"message": ...}. Internal causes are logged, never sent.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		respondError(c, log, err)
	}
}

func respondError(c echo.Context, log zerolog.Logger, err error) {
	if c.Response().Committed {
		return
	}
	status, msg := classify(err)

	ev := log.Debug()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("kind", apperr.KindOf(err).String()).
		Int("status", status).
		Msg("request failed")

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, echo.Map{"message": msg})
}

func classify(err error) (int, string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			return http.StatusInternalServerError, "internal server error"
		}
		return ae.Kind.Status(), apperr.Message(err)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "Request timed out"
	}
	return http.StatusInternalServerError, "internal server error"
}

// bindJSON decodes the request body and reports malformed input as a
// validation error.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "Invalid request body", err)
	}
	return nil
}

// identity returns the caller set by JWTAuth.
func identity(c echo.Context) (model.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return model.Identity{}, apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	return id, nil
}

// optionalIdentity returns the caller when OptionalJWT authenticated one.
func optionalIdentity(c echo.Context) *model.Identity {
	if id, ok := middleware.CurrentIdentity(c); ok {
		return &id
	}
	return nil
}
