package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Processor webhook payloads are far below this.
const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	Payments Payments
}

func NewPaymentHandler(p Payments) *PaymentHandler { return &PaymentHandler{Payments: p} }

// CreateIntent starts (or resumes) payment of a confirmed booking.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	checkout, err := h.Payments.CreateIntent(ctx, caller, bookingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, checkout)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Payments.Get(ctx, caller, bookingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Webhook receives processor notifications.  The signature covers the raw
// body, so it is read before any decoding.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Payments.HandleWebhook(ctx, payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
