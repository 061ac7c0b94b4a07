package handler

import (
	"context"
	"fmt"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
	"github.com/iliyamo/private-chef-marketplace/internal/utils"
)

// stubChefs records calls and returns canned results.
type stubChefs struct {
	chefs      map[uint64]*model.Chef
	lastQuery  repository.ChefSearchQuery
	created    []model.Chef
	updates    []repository.ChefPatch
	err        error
	totalCount int64
}

func (s *stubChefs) Get(_ context.Context, id uint64) (*model.Chef, error) {
	if c, ok := s.chefs[id]; ok {
		return c, nil
	}
	return nil, repository.ErrChefNotFound
}

func (s *stubChefs) List(_ context.Context, q repository.ChefSearchQuery) ([]model.Chef, int64, error) {
	s.lastQuery = q
	var out []model.Chef
	for _, c := range s.chefs {
		out = append(out, *c)
	}
	return out, s.totalCount, s.err
}

func (s *stubChefs) Create(_ context.Context, c service.Caller, in model.Chef) (*model.Chef, error) {
	if s.err != nil {
		return nil, s.err
	}
	in.ID = uint64(len(s.created) + 1)
	in.UserID = c.ID
	s.created = append(s.created, in)
	return &in, nil
}

func (s *stubChefs) Update(_ context.Context, c service.Caller, id uint64, p repository.ChefPatch) (*model.Chef, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updates = append(s.updates, p)
	return s.Get(context.Background(), id)
}

func (s *stubChefs) Delete(context.Context, service.Caller, uint64) error { return s.err }

type stubBookings struct {
	b       *model.Booking
	changes booking.Changes
	err     error
	got     booking.Update
}

func (s *stubBookings) Create(_ context.Context, c service.Caller, in service.NewBooking) (*model.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Booking{ID: 1, CustomerID: c.ID, ChefID: in.ChefID, GuestCount: in.GuestCount, Status: booking.StatusPending}, nil
}

func (s *stubBookings) Get(context.Context, service.Caller, uint64) (*model.Booking, error) {
	return s.b, s.err
}

func (s *stubBookings) List(context.Context, service.Caller, string) ([]model.Booking, error) {
	return nil, s.err
}

func (s *stubBookings) Update(_ context.Context, _ service.Caller, _ uint64, u booking.Update) (*model.Booking, booking.Changes, error) {
	s.got = u
	return s.b, s.changes, s.err
}

func (s *stubBookings) Delete(context.Context, service.Caller, uint64) error { return s.err }

type stubAccounts struct {
	user       *model.User
	err        error
	logoutRaw  string
	logoutUser uint64
}

func (s *stubAccounts) session() service.Session {
	return service.Session{Access: utils.AccessToken{Token: "acc"}, Refresh: utils.RefreshToken{Raw: "ref"}}
}

func (s *stubAccounts) Register(_ context.Context, in service.Registration) (*model.User, service.Session, error) {
	if s.err != nil {
		return nil, service.Session{}, s.err
	}
	return &model.User{ID: 1, Email: in.Email, Role: model.RoleCustomer}, s.session(), nil
}

func (s *stubAccounts) Login(context.Context, string, string) (*model.User, service.Session, error) {
	if s.err != nil {
		return nil, service.Session{}, s.err
	}
	return s.user, s.session(), nil
}

func (s *stubAccounts) Refresh(context.Context, string) (*model.User, service.Session, error) {
	return s.user, s.session(), s.err
}

func (s *stubAccounts) RefreshAccess(context.Context, string) (utils.AccessToken, error) {
	return utils.AccessToken{Token: "acc"}, s.err
}

func (s *stubAccounts) Logout(_ context.Context, raw string, callerID uint64) error {
	s.logoutRaw, s.logoutUser = raw, callerID
	return s.err
}

func (s *stubAccounts) Me(context.Context, service.Caller) (*model.User, error) { return s.user, s.err }

func (s *stubAccounts) UpdateMe(context.Context, service.Caller, repository.ProfilePatch) (*model.User, error) {
	return s.user, s.err
}

func (s *stubAccounts) Deactivate(context.Context, service.Caller) error { return s.err }

type stubGate map[string]service.Caller

func (g stubGate) Authenticate(_ context.Context, raw string) (service.Caller, error) {
	if c, ok := g[raw]; ok {
		return c, nil
	}
	return service.Caller{}, service.ErrUnauthorized
}

type stubPayments struct {
	webhookErr error
}

func (s *stubPayments) CreateIntent(context.Context, service.Caller, uint64) (*service.Checkout, error) {
	return nil, fmt.Errorf("create intent: %w", service.ErrPaymentsDisabled)
}

func (s *stubPayments) Get(context.Context, service.Caller, uint64) (*model.Payment, error) {
	return nil, repository.ErrPaymentNotFound
}

func (s *stubPayments) HandleWebhook(context.Context, []byte, string) error { return s.webhookErr }
