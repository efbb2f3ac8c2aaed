package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

var errNotNumeric = errors.New("value must be a whole number")

// flexID accepts an id sent either as a JSON number or a numeric string;
// the web client keeps ids as strings.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	n, err := flexNumber(b)
	if err != nil {
		return err
	}
	if n < 0 {
		return errNotNumeric
	}
	*f = flexID(n)
	return nil
}

// flexInt is an integer that may arrive as a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	n, err := flexNumber(b)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func flexNumber(b []byte) (int64, error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, nil
	}
	if uq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(uq)
		if s == "" {
			return 0, nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	return n, nil
}

// pathID parses a numeric path parameter. Anything else is reported as
// missing, since no resource can have that id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// withTimeout bounds the work of one request.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), d)
}

var _ json.Unmarshaler = (*flexID)(nil)
