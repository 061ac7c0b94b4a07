// Package queue defines the booking lifecycle events exchanged over RabbitMQ,
// the publisher used by the API and the consumer that writes the booking
// audit log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// Event types carried in BookingEvent.Type.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingDeleted       = "booking.deleted"
)

// BookingEvent is published whenever a booking is created, changes status or
// is deleted.  It carries enough information for downstream consumers to
// log, notify or trigger analytics without querying the primary database.
type BookingEvent struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	BookingID       uint64 `json:"booking_id"`
	CustomerID      uint64 `json:"customer_id"`
	ChefID          uint64 `json:"chef_id"`
	ActorID         uint64 `json:"actor_id"`
	Status          string `json:"status"`
	PreviousStatus  string `json:"previous_status,omitempty"`
	EventDate       string `json:"event_date"`
	GuestCount      int    `json:"guest_count"`
	TotalPriceCents int64  `json:"total_price_cents"`
	Currency        string `json:"currency"`
	OccurredAt      string `json:"occurred_at"`
}

// NewBookingEvent snapshots b for an event of the given type.
func NewBookingEvent(typ string, b *model.Booking, actorID uint64) BookingEvent {
	return BookingEvent{
		ID:              uuid.NewString(),
		Type:            typ,
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		ChefID:          b.ChefID,
		ActorID:         actorID,
		Status:          string(b.Status),
		EventDate:       b.EventDate,
		GuestCount:      b.GuestCount,
		TotalPriceCents: b.TotalPriceCents,
		Currency:        b.Currency,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
}
