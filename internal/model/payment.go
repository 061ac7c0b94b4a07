package model

import "time"

// PaymentStatus tracks a payment intent at the processor.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment records one payment attempt for a booking.  ProviderRef is the
// processor's payment intent id.
type Payment struct {
	ID             uint64        `json:"id"`
	BookingID      uint64        `json:"booking_id"`
	AmountCents    int64         `json:"amount_cents"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	Provider       string        `json:"provider"`
	ProviderRef    string        `json:"provider_ref"`
	IdempotencyKey string        `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
