package model

import (
	"time"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
)

// Booking links one customer and one chef (both users.id) for an event.
// EventDate is YYYY-MM-DD and EventTime is HH:MM in the event's local time.
type Booking struct {
	ID                  uint64         `json:"id"`
	CustomerID          uint64         `json:"customer_id"`
	ChefID              uint64         `json:"chef_id"`
	EventDate           string         `json:"event_date"`
	EventTime           string         `json:"event_time"`
	GuestCount          int            `json:"guest_count"`
	ServiceType         string         `json:"service_type"`
	Status              booking.Status `json:"status"`
	TotalPriceCents     int64          `json:"total_price_cents"`
	Currency            string         `json:"currency"`
	SpecialRequests     *string        `json:"special_requests,omitempty"`
	DietaryRequirements []string       `json:"dietary_requirements"`
	Address             string         `json:"address"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	Chef     *BookingChef `json:"chef,omitempty"`
	Customer *UserSummary `json:"customer,omitempty"`
}

// BookingChef is the chef side joined into a booking read.
type BookingChef struct {
	UserSummary
	ChefProfileID uint64 `json:"chef_profile_id"`
	Specialty     string `json:"specialty"`
	Location      string `json:"location"`
}
