package model

import "time"

// Review is a customer's rating of a completed booking.  Sub-ratings are
// optional; each is 1..5 when present.
type Review struct {
	ID                 uint64    `json:"id"`
	BookingID          uint64    `json:"booking_id"`
	CustomerID         uint64    `json:"customer_id"`
	ChefID             uint64    `json:"chef_id"`
	Rating             int       `json:"rating"`
	FoodRating         *int      `json:"food_rating,omitempty"`
	ServiceRating      *int      `json:"service_rating,omitempty"`
	ValueRating        *int      `json:"value_rating,omitempty"`
	PresentationRating *int      `json:"presentation_rating,omitempty"`
	Comment            string    `json:"comment"`
	CreatedAt          time.Time `json:"created_at"`
	CustomerName       string    `json:"customer_name,omitempty"`
}
