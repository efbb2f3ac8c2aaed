package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/service"
)

type PaymentHandler struct {
	Payments *service.PaymentService
	Timeout  time.Duration
}

func NewPaymentHandler(payments *service.PaymentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Timeout: timeout}
}

type intentReq struct {
	Amount    any    `json:"amount"`
	Currency  string `json:"currency"`
	BookingID flexID `json:"bookingId"`
}

// CreateIntent handles POST /api/payment/create-payment-intent
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	var req intentReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Payments.CreateIntent(ctx, optionalIdentity(c), service.IntentInput{
		Amount:    req.Amount,
		Currency:  req.Currency,
		BookingID: uint64(req.BookingID),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
