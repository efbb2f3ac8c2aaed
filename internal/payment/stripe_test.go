package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError(t *testing.T) {
	cause := errors.New("boom")
	err := &GatewayError{Msg: "Your card was declined.", Err: cause}

	assert.Equal(t, "payment gateway: Your card was declined.", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestStripeWithoutKeyFails(t *testing.T) {
	s := NewStripe("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreatePaymentIntent(ctx, IntentRequest{Amount: 100, Currency: "inr"})

	var ge *GatewayError
	assert.ErrorAs(t, err, &ge)
}
