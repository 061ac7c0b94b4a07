package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/utils"
)

func TestAuthenticate(t *testing.T) {
	users := newMemUsers(
		&model.User{ID: 1, Role: model.RoleChef, IsActive: true},
		&model.User{ID: 2, Role: model.RoleCustomer, IsActive: false},
	)
	gate := NewGate("k", users)
	ctx := context.Background()

	// The role claim is stale on purpose: the stored role wins.
	tok, err := utils.NewAccessToken("k", 1, "customer", 5)
	require.NoError(t, err)
	c, err := gate.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Caller{ID: 1, Role: model.RoleChef}, c)

	inactive, _ := utils.NewAccessToken("k", 2, "customer", 5)
	missing, _ := utils.NewAccessToken("k", 99, "customer", 5)
	forged, _ := utils.NewAccessToken("other", 1, "chef", 5)

	for name, raw := range map[string]string{
		"empty":    "",
		"inactive": inactive.Token,
		"missing":  missing.Token,
		"forged":   forged.Token,
	} {
		_, err := gate.Authenticate(ctx, raw)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
	}
}

func TestAuthorizeBooking(t *testing.T) {
	o := repository.Ownership{ID: 1, CustomerID: 10, ChefID: 20}

	p, err := AuthorizeBooking(customer, o)
	require.NoError(t, err)
	assert.Equal(t, booking.PartyCustomer, p)

	p, err = AuthorizeBooking(chef, o)
	require.NoError(t, err)
	assert.Equal(t, booking.PartyChef, p)

	_, err = AuthorizeBooking(Caller{ID: 30, Role: model.RoleAdmin}, o)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestAuthorizeOwner(t *testing.T) {
	assert.NoError(t, AuthorizeOwner(chef, 20))
	assert.ErrorIs(t, AuthorizeOwner(customer, 20), repository.ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwner(Caller{}, 0), repository.ErrForbidden)
}
