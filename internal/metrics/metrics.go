// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	BookingsCreated    prometheus.Counter
	BookingsCancelled  prometheus.Counter
	BookingStatusSet   *prometheus.CounterVec
	SlotRejections     prometheus.Counter
	PaymentIntents     *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
}

// New registers all collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings successfully created",
		}),

		BookingsCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Bookings cancelled by users or admins",
		}),

		BookingStatusSet: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_status_updates_total",
			Help: "Admin status updates by target status",
		}, []string{"status"}),

		SlotRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_slot_rejections_total",
			Help: "Booking attempts refused because the slot was full",
		}),

		PaymentIntents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Payment intent creations by result",
		}, []string{"result"}),

		EventPublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_event_publish_errors_total",
			Help: "Booking events that could not be published",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

func (m *Metrics) BookingCreated() {
	if m != nil {
		m.BookingsCreated.Inc()
	}
}

func (m *Metrics) BookingCancelled() {
	if m != nil {
		m.BookingsCancelled.Inc()
	}
}

func (m *Metrics) StatusSet(status string) {
	if m != nil {
		m.BookingStatusSet.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) SlotRejected() {
	if m != nil {
		m.SlotRejections.Inc()
	}
}

func (m *Metrics) PaymentIntent(result string) {
	if m != nil {
		m.PaymentIntents.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) PublishFailed() {
	if m != nil {
		m.EventPublishErrors.Inc()
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
