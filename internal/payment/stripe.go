// Package payment wraps the Stripe payment-intent API behind the small
// surface the booking payment flow needs.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Provider is stored in payments.provider.
const Provider = "stripe"

var (
	// ErrBadSignature is returned for webhook payloads that fail verification.
	ErrBadSignature = errors.New("invalid webhook signature")
	// ErrGateway wraps every failure reported by the processor.
	ErrGateway = errors.New("payment gateway error")
)

// IntentRequest describes a payment intent to create.
type IntentRequest struct {
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	BookingID      uint64
	Description    string
}

// Intent is the processor's view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
}

// WebhookEvent is a verified webhook notification about a payment intent.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	Status   string
}

// Stripe talks to the Stripe API with a per-instance client, so tests and
// multiple keys never share the package-level stripe.Key.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe builds a gateway for secretKey.  webhookSecret may be empty, in
// which case every webhook is rejected.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

// CreateIntent creates a payment intent.  The idempotency key makes a retried
// request return the original intent instead of charging twice.
func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("booking_id", strconv.FormatUint(req.BookingID, 10))

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, gatewayError(err)
	}
	return toIntent(pi), nil
}

// GetIntent fetches an existing payment intent.
func (s *Stripe) GetIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, gatewayError(err)
	}
	return toIntent(pi), nil
}

// CancelIntent cancels an intent that has not been paid.
func (s *Stripe) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Cancel(id, params); err != nil {
		return gatewayError(err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the payment
// intent carried by the event.  Events about other objects come back with an
// empty IntentID.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if s.webhookSecret == "" {
		return WebhookEvent{}, ErrBadSignature
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	out := WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || ev.Data == nil {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.Status = string(pi.Status)
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
	}
}

func gatewayError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %s (%s)", ErrGateway, se.Msg, se.Code)
	}
	return fmt.Errorf("%w: %v", ErrGateway, err)
}
