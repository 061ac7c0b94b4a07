package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/payment"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

// webhookStatus maps processor events to payment statuses.
var webhookStatus = map[string]model.PaymentStatus{
	"payment_intent.succeeded":      model.PaymentSucceeded,
	"payment_intent.payment_failed": model.PaymentFailed,
	"payment_intent.canceled":       model.PaymentCancelled,
}

// PaymentService creates payment intents for confirmed bookings and tracks
// their outcome from processor webhooks.  A nil gateway disables payments.
type PaymentService struct {
	bookings BookingStore
	payments PaymentStore
	gateway  PaymentGateway
}

func NewPaymentService(bookings BookingStore, payments PaymentStore, gateway PaymentGateway) *PaymentService {
	return &PaymentService{bookings: bookings, payments: payments, gateway: gateway}
}

// Checkout is a payment together with the client secret the browser needs
// to confirm it.
type Checkout struct {
	Payment      *model.Payment `json:"payment"`
	ClientSecret string         `json:"client_secret"`
}

// paymentKeySpace namespaces the deterministic idempotency keys.
var paymentKeySpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("private-chef-marketplace/payments"))

// idempotencyKey is stable for one booking, attempt and amount, so a retried
// call reaches the processor with the same key and gets the same intent back.
func idempotencyKey(bookingID uint64, attempt int, amountCents int64, currency string) string {
	name := fmt.Sprintf("booking:%d:attempt:%d:amount:%d:%s", bookingID, attempt, amountCents, currency)
	return uuid.NewSHA1(paymentKeySpace, []byte(name)).String()
}

// CreateIntent starts payment of a confirmed booking.  A succeeded payment,
// or a pending one for the current total, is returned instead of creating
// another.  A pending payment for a stale total is cancelled and replaced.
func (s *PaymentService) CreateIntent(ctx context.Context, c Caller, bookingID uint64) (*Checkout, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}
	o, err := s.bookings.GetOwnership(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	party, err := AuthorizeBooking(c, o)
	if err != nil {
		return nil, err
	}
	if party != booking.PartyCustomer {
		return nil, repository.ErrForbidden
	}
	if o.Status != booking.StatusConfirmed {
		return nil, ErrBookingNotConfirmed
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.payments.LatestForBooking(ctx, bookingID)
	switch {
	case err == nil && existing.Status == model.PaymentSucceeded:
		return s.resume(ctx, existing)
	case err == nil && existing.Status == model.PaymentPending:
		if existing.AmountCents == b.TotalPriceCents && existing.Currency == b.Currency {
			return s.resume(ctx, existing)
		}
		if err := s.gateway.CancelIntent(ctx, existing.ProviderRef); err != nil {
			return nil, err
		}
		if err := s.payments.SetStatusByRef(ctx, existing.ProviderRef, model.PaymentCancelled); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"intent":     existing.ProviderRef,
			"old_amount": existing.AmountCents,
			"new_amount": b.TotalPriceCents,
		}).Info("booking repriced, pending payment replaced")
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	attempt, err := s.payments.CountForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	key := idempotencyKey(b.ID, attempt, b.TotalPriceCents, b.Currency)
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents:    b.TotalPriceCents,
		Currency:       b.Currency,
		IdempotencyKey: key,
		BookingID:      b.ID,
		Description:    fmt.Sprintf("Booking #%d on %s", b.ID, b.EventDate),
	})
	if err != nil {
		return nil, err
	}
	p := &model.Payment{
		BookingID:      b.ID,
		AmountCents:    b.TotalPriceCents,
		Currency:       b.Currency,
		Status:         model.PaymentPending,
		Provider:       payment.Provider,
		ProviderRef:    intent.ID,
		IdempotencyKey: key,
	}
	err = s.payments.Create(ctx, p)
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent call with the same key stored the same intent first.
		latest, lerr := s.payments.LatestForBooking(ctx, bookingID)
		if lerr == nil && latest.ProviderRef == intent.ID {
			return &Checkout{Payment: latest, ClientSecret: intent.ClientSecret}, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &Checkout{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

func (s *PaymentService) resume(ctx context.Context, p *model.Payment) (*Checkout, error) {
	intent, err := s.gateway.GetIntent(ctx, p.ProviderRef)
	if err != nil {
		return nil, err
	}
	return &Checkout{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// Get returns the latest payment of a booking to either party.
func (s *PaymentService) Get(ctx context.Context, c Caller, bookingID uint64) (*model.Payment, error) {
	o, err := s.bookings.GetOwnership(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := AuthorizeBooking(c, o); err != nil {
		return nil, err
	}
	return s.payments.LatestForBooking(ctx, bookingID)
}

// HandleWebhook verifies and applies a processor notification.  Unknown
// event types and unknown intents are acknowledged without change.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrPaymentsDisabled
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	status, ok := webhookStatus[ev.Type]
	if !ok || ev.IntentID == "" {
		logrus.WithField("type", ev.Type).Debug("payment webhook ignored")
		return nil
	}
	err = s.payments.SetStatusByRef(ctx, ev.IntentID, status)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithFields(logrus.Fields{"intent": ev.IntentID, "type": ev.Type}).Warn("payment webhook for unknown intent")
		return nil
	}
	return err
}
