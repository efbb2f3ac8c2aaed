// Package payment wraps the external payment gateway. Only PaymentIntent
// creation is needed: the browser confirms the intent with the gateway
// directly, so no card data reaches this service.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IntentRequest describes a PaymentIntent to create. Amount is in minor
// currency units.
type IntentRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the subset of a created PaymentIntent the client needs.
type Intent struct {
	ID           string
	ClientSecret string
}

// GatewayError carries the gateway's user-facing message.
type GatewayError struct {
	Msg string
	Err error
}

func (e *GatewayError) Error() string { return "payment gateway: " + e.Msg }
func (e *GatewayError) Unwrap() error { return e.Err }

// Stripe creates PaymentIntents through the Stripe API.
type Stripe struct {
	sc *client.API
}

// NewStripe builds a client for the given secret key.
func NewStripe(secretKey string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{sc: sc}
}

// CreatePaymentIntent creates an intent with automatic payment methods.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return Intent{}, &GatewayError{Msg: se.Msg, Err: err}
		}
		return Intent{}, &GatewayError{Msg: "payment provider unavailable", Err: fmt.Errorf("create payment intent: %w", err)}
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
