package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
	"github.com/iliyamo/private-chef-marketplace/internal/utils"
)

// The interfaces below are what the handlers need from the service layer.
// The concrete *service.XService types satisfy them; tests substitute stubs.

// Authenticator resolves a bearer token; *service.Gate implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (service.Caller, error)
}

type Accounts interface {
	Register(ctx context.Context, in service.Registration) (*model.User, service.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, service.Session, error)
	Refresh(ctx context.Context, raw string) (*model.User, service.Session, error)
	RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error)
	Logout(ctx context.Context, raw string, callerID uint64) error
	Me(ctx context.Context, c service.Caller) (*model.User, error)
	UpdateMe(ctx context.Context, c service.Caller, p repository.ProfilePatch) (*model.User, error)
	Deactivate(ctx context.Context, c service.Caller) error
}

type Bookings interface {
	Create(ctx context.Context, c service.Caller, in service.NewBooking) (*model.Booking, error)
	Get(ctx context.Context, c service.Caller, id uint64) (*model.Booking, error)
	List(ctx context.Context, c service.Caller, status string) ([]model.Booking, error)
	Update(ctx context.Context, c service.Caller, id uint64, u booking.Update) (*model.Booking, booking.Changes, error)
	Delete(ctx context.Context, c service.Caller, id uint64) error
}

type Chefs interface {
	Get(ctx context.Context, id uint64) (*model.Chef, error)
	List(ctx context.Context, q repository.ChefSearchQuery) ([]model.Chef, int64, error)
	Create(ctx context.Context, c service.Caller, in model.Chef) (*model.Chef, error)
	Update(ctx context.Context, c service.Caller, id uint64, p repository.ChefPatch) (*model.Chef, error)
	Delete(ctx context.Context, c service.Caller, id uint64) error
}

type Reviews interface {
	Create(ctx context.Context, c service.Caller, bookingID uint64, in service.NewReview) (*model.Review, error)
	ListForChef(ctx context.Context, chefID uint64, page, size int) ([]model.Review, error)
}

type Payments interface {
	CreateIntent(ctx context.Context, c service.Caller, bookingID uint64) (*service.Checkout, error)
	Get(ctx context.Context, c service.Caller, bookingID uint64) (*model.Payment, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// CachePurger drops cached public chef responses after a chef write.
type CachePurger func(ctx context.Context) error

// run is best effort: stale entries expire with the cache TTL anyway.
func (p CachePurger) run(ctx context.Context) {
	if p == nil {
		return
	}
	if err := p(ctx); err != nil {
		logrus.WithError(err).Warn("purge chef cache failed")
	}
}
