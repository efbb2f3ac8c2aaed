package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/metrics"
)

const requestIDKey = "request_id"

// RequestID takes X-Request-ID from the request or generates one, and echoes
// it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Set(requestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestID, if any.
func GetRequestID(c echo.Context) string {
	s, _ := c.Get(requestIDKey).(string)
	return s
}

// RequestLogger logs one line per request and records HTTP metrics. Handler
// errors are rendered here so the logged status is the one sent.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(req.Method, route, strconv.Itoa(status), elapsed.Seconds())

			ev := log.Info()
			switch {
			case status >= 500:
				ev = log.Error()
			case status >= 400:
				ev = log.Warn()
			}
			if id, ok := CurrentIdentity(c); ok {
				ev = ev.Uint64("user_id", id.ID)
			}
			ev.Str("request_id", GetRequestID(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", route).
				Int("status", status).
				Dur("duration", elapsed).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}

// Recover turns a panic in a handler into an internal error.
func Recover(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					log.Error().
						Str("request_id", GetRequestID(c)).
						Str("path", c.Request().URL.Path).
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					err = apperr.Internal("internal server error", fmt.Errorf("panic: %v", r))
				}
			}()
			return next(c)
		}
	}
}
