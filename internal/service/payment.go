package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/metrics"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/payment"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// IntentInput is the raw payment request. Amount may be a JSON number or a
// numeric string.
type IntentInput struct {
	Amount    any
	Currency  string
	BookingID uint64
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentService proxies PaymentIntent creation to the gateway.
type PaymentService struct {
	gateway  PaymentGateway
	bookings BookingStore
	currency string
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewPaymentService(gw PaymentGateway, bookings BookingStore, defaultCurrency string, m *metrics.Metrics, log zerolog.Logger) *PaymentService {
	return &PaymentService{gateway: gw, bookings: bookings, currency: strings.ToLower(defaultCurrency), metrics: m, log: log}
}

// ParseAmount converts a client amount to positive minor units, rounding
// fractional values.
func ParseAmount(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/2 {
		return 0, false
	}
	n := int64(math.Round(f))
	return n, n > 0
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// CreateIntent creates a PaymentIntent. With a booking id the caller must
// own the (active) booking, the amount comes from the booking and the
// intent id is stored on it; otherwise the client amount is used.
func (s *PaymentService) CreateIntent(ctx context.Context, caller *model.Identity, in IntentInput) (IntentResult, error) {
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}
	if !validCurrency(currency) {
		return IntentResult{}, apperr.Validation("Invalid currency")
	}

	req := payment.IntentRequest{Currency: currency}
	var booking *model.Booking
	if in.BookingID != 0 {
		if caller == nil {
			return IntentResult{}, apperr.New(apperr.KindUnauthenticated, "Access token required")
		}
		b, err := s.bookings.GetByID(ctx, in.BookingID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && (b.UserID != caller.ID || !b.Status.IsActive())) {
			return IntentResult{}, apperr.NotFound("Booking not found")
		}
		if err != nil {
			return IntentResult{}, apperr.Internal("load booking failed", err)
		}
		booking = &b
		req.Amount = b.TotalAmount * 100
		req.Metadata = map[string]string{"booking_id": strconv.FormatUint(b.ID, 10)}
	} else {
		amount, ok := ParseAmount(in.Amount)
		if !ok {
			return IntentResult{}, apperr.Validation("Invalid amount")
		}
		req.Amount = amount
	}
	if req.Amount <= 0 {
		return IntentResult{}, apperr.Validation("Invalid amount")
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, req)
	if err != nil {
		s.metrics.PaymentIntent("error")
		var ge *payment.GatewayError
		if errors.As(err, &ge) {
			return IntentResult{}, apperr.Wrap(apperr.KindPaymentGateway, ge.Msg, err)
		}
		return IntentResult{}, apperr.Wrap(apperr.KindPaymentGateway, "payment provider unavailable", err)
	}
	s.metrics.PaymentIntent("ok")

	if booking != nil {
		// The intent exists at the gateway either way; a failed link is logged, not surfaced.
		if err := s.bookings.SetPaymentRef(ctx, booking.ID, intent.ID); err != nil {
			s.log.Error().Err(err).Uint64("booking_id", booking.ID).Str("payment_intent", intent.ID).Msg("store payment ref failed")
		}
	}
	s.log.Info().Int64("amount", req.Amount).Str("currency", currency).Str("payment_intent", intent.ID).Msg("payment intent created")
	return IntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}
