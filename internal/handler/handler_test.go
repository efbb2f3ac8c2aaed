package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/apperr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("guests must be between 1 and 20"), http.StatusBadRequest, "guests must be between 1 and 20"},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("Booking not found")), http.StatusNotFound, "Booking not found"},
		{apperr.New(apperr.KindSlotUnavailable, "Selected time slot is fully booked"), http.StatusConflict, "Selected time slot is fully booked"},
		{apperr.Internal("db down", errors.New("dial tcp: refused")), http.StatusInternalServerError, "internal server error"},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot, "I'm a teapot"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "Request timed out"},
		{errors.New("sql: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		status, msg := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}

func TestRespondErrorSkipsCommitted(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	respondError(c, zerolog.Nop(), apperr.NotFound("late"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestFlexValues(t *testing.T) {
	var body struct {
		ID     flexID  `json:"id"`
		Guests flexInt `json:"guests"`
	}
	for _, raw := range []string{`{"id":7,"guests":4}`, `{"id":"7","guests":" 4 "}`} {
		require.NoError(t, json.Unmarshal([]byte(raw), &body), raw)
		assert.Equal(t, flexID(7), body.ID)
		assert.Equal(t, flexInt(4), body.Guests)
	}

	body.ID, body.Guests = 0, 0
	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"guests":""}`), &body))
	assert.Zero(t, body.ID)
	assert.Zero(t, body.Guests)

	for _, raw := range []string{`{"id":"abc"}`, `{"id":-1}`, `{"guests":2.5}`, `{"guests":true}`} {
		assert.Error(t, json.Unmarshal([]byte(raw), &body), raw)
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	for in, want := range map[string]bool{"12": true, "0": false, "abc": false, "-3": false, "": false} {
		c.SetParamValues(in)
		_, ok := pathID(c, "id")
		assert.Equal(t, want, ok, in)
	}
}
