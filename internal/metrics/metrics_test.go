package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.BookingCreated()
	m.BookingCreated()
	m.SlotRejected()
	m.PaymentIntent("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentIntents.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingCreated()
		m.BookingCancelled()
		m.StatusSet("confirmed")
		m.SlotRejected()
		m.PaymentIntent("error")
		m.PublishFailed()
		m.ObserveHTTP("GET", "/", "200", 0.1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/restaurants", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/api/restaurants",status="200"} 1`)
}
