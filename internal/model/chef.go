package model

import "time"

// PriceUnit says what a chef's price range is quoted per.
type PriceUnit string

const (
	PerPerson PriceUnit = "per_person"
	PerEvent  PriceUnit = "per_event"
	PerHour   PriceUnit = "per_hour"
)

// PriceRange is a chef's advertised price band in minor currency units.
type PriceRange struct {
	MinCents int64     `json:"min_cents"`
	MaxCents int64     `json:"max_cents"`
	Currency string    `json:"currency"`
	Unit     PriceUnit `json:"unit"`
}

// QuoteCents prices a booking for guests people.  Only per-person pricing
// scales with the guest count; other units are quoted at the minimum.
func (p PriceRange) QuoteCents(guests int) int64 {
	if p.Unit == PerPerson && guests > 0 {
		return p.MinCents * int64(guests)
	}
	return p.MinCents
}

// Chef is the one-to-one chef profile extension of a User (`chefs` table).
// Rating and ReviewCount are aggregates over the chef's reviews.
type Chef struct {
	ID              uint64       `json:"id"`
	UserID          uint64       `json:"user_id"`
	Specialty       string       `json:"specialty"`
	Bio             string       `json:"bio"`
	YearsExperience int          `json:"years_experience"`
	Cuisines        []string     `json:"cuisines"`
	Certifications  []string     `json:"certifications"`
	PriceRange      PriceRange   `json:"price_range"`
	Location        string       `json:"location"`
	Rating          float64      `json:"rating"`
	ReviewCount     int          `json:"review_count"`
	IsVerified      bool         `json:"is_verified"`
	IsFeatured      bool         `json:"is_featured"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	User            *UserSummary `json:"user,omitempty"`
}
