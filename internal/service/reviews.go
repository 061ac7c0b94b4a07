package service

import (
	"context"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

// NewReview is a customer's review of a completed booking.
type NewReview struct {
	Rating             int
	FoodRating         *int
	ServiceRating      *int
	ValueRating        *int
	PresentationRating *int
	Comment            string
}

// ReviewService records reviews and keeps chef ratings in step with them.
type ReviewService struct {
	reviews  ReviewStore
	bookings BookingStore
	chefs    ChefStore
}

func NewReviewService(reviews ReviewStore, bookings BookingStore, chefs ChefStore) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, chefs: chefs}
}

// Create reviews a booking.  Only its customer may, once, after completion.
func (s *ReviewService) Create(ctx context.Context, c Caller, bookingID uint64, in NewReview) (*model.Review, error) {
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
	if o.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}
	if !inStars(&in.Rating) {
		return nil, invalid("rating", "must be between 1 and 5")
	}
	subs := []struct {
		name string
		v    *int
	}{
		{"food_rating", in.FoodRating},
		{"service_rating", in.ServiceRating},
		{"value_rating", in.ValueRating},
		{"presentation_rating", in.PresentationRating},
	}
	for _, sub := range subs {
		if sub.v != nil && !inStars(sub.v) {
			return nil, invalid(sub.name, "must be between 1 and 5")
		}
	}

	rv := &model.Review{
		BookingID:          bookingID,
		CustomerID:         o.CustomerID,
		ChefID:             o.ChefID,
		Rating:             in.Rating,
		FoodRating:         in.FoodRating,
		ServiceRating:      in.ServiceRating,
		ValueRating:        in.ValueRating,
		PresentationRating: in.PresentationRating,
		Comment:            strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// ListForChef returns a page of reviews for the chef profile id.
func (s *ReviewService) ListForChef(ctx context.Context, chefID uint64, page, size int) ([]model.Review, error) {
	chef, err := s.chefs.GetByID(ctx, chefID)
	if err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)
	return s.reviews.ListByChef(ctx, chef.UserID, size, (page-1)*size)
}

// ReconcileRatings recomputes every chef's rating aggregate.
func (s *ReviewService) ReconcileRatings(ctx context.Context) (int64, error) {
	return s.chefs.RecomputeAllRatings(ctx)
}

func inStars(v *int) bool { return *v >= 1 && *v <= 5 }
