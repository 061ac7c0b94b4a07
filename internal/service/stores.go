// Package service holds the business rules of the marketplace: the
// authorization gate, the booking façade and the account, chef, review and
// payment flows.  Services depend on the small store interfaces below, which
// the MySQL repositories implement.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/payment"
	"github.com/iliyamo/private-chef-marketplace/internal/queue"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p repository.ProfilePatch) error
	Deactivate(ctx context.Context, id uint64) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ChefStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Chef, error)
	GetByUserID(ctx context.Context, userID uint64) (*model.Chef, error)
	Create(ctx context.Context, c *model.Chef) error
	Update(ctx context.Context, id uint64, p repository.ChefPatch) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, q repository.ChefSearchQuery) ([]model.Chef, int64, error)
	RecomputeAllRatings(ctx context.Context) (int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetOwnership(ctx context.Context, id uint64) (repository.Ownership, error)
	ListForUser(ctx context.Context, userID uint64, status *booking.Status) ([]model.Booking, error)
	Apply(ctx context.Context, id uint64, p repository.BookingPatch) error
	Delete(ctx context.Context, id uint64) error
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ListByChef(ctx context.Context, chefUserID uint64, limit, offset int) ([]model.Review, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	LatestForBooking(ctx context.Context, bookingID uint64) (*model.Payment, error)
	CountForBooking(ctx context.Context, bookingID uint64) (int, error)
	SetStatusByRef(ctx context.Context, providerRef string, status model.PaymentStatus) error
}

// EventPublisher sends booking lifecycle events.  Publishing is best effort:
// a failure is logged and never fails the request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// PaymentGateway is the payment processor.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req payment.IntentRequest) (payment.Intent, error)
	GetIntent(ctx context.Context, id string) (payment.Intent, error)
	CancelIntent(ctx context.Context, id string) error
	ParseWebhook(payload []byte, signature string) (payment.WebhookEvent, error)
}

// NopPublisher drops every event.  It stands in when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }
