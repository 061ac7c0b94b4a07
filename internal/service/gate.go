package service

import (
	"context"
	"errors"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/utils"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   uint64
	Role model.Role
}

// Gate resolves callers from access tokens.  Nothing is cached: every call
// re-reads the account so role changes and deactivation apply immediately.
type Gate struct {
	secret string
	users  UserStore
}

func NewGate(secret string, users UserStore) *Gate {
	return &Gate{secret: secret, users: users}
}

// Authenticate verifies a raw bearer token and loads its account.
func (g *Gate) Authenticate(ctx context.Context, raw string) (Caller, error) {
	if raw == "" {
		return Caller{}, ErrUnauthorized
	}
	claims, err := utils.ParseAccessToken(g.secret, raw)
	if err != nil {
		return Caller{}, ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return Caller{}, ErrUnauthorized
	}
	u, err := g.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return Caller{}, ErrUnauthorized
	}
	if err != nil {
		return Caller{}, err
	}
	if !u.IsActive {
		return Caller{}, ErrUnauthorized
	}
	return Caller{ID: u.ID, Role: u.Role}, nil
}

// AuthorizeBooking returns the caller's party on the booking, or
// ErrForbidden when the caller is neither its customer nor its chef.
func AuthorizeBooking(c Caller, o repository.Ownership) (booking.Party, error) {
	p := booking.PartyOf(c.ID, o.CustomerID, o.ChefID)
	if p == booking.PartyNone {
		return booking.PartyNone, repository.ErrForbidden
	}
	return p, nil
}

// AuthorizeOwner allows only the account that owns a resource.
func AuthorizeOwner(c Caller, ownerID uint64) error {
	if c.ID == 0 || c.ID != ownerID {
		return repository.ErrForbidden
	}
	return nil
}
