package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ChefService manages chef profiles and the public chef directory.
type ChefService struct {
	chefs ChefStore
}

func NewChefService(chefs ChefStore) *ChefService { return &ChefService{chefs: chefs} }

// Get returns one chef profile with its owner joined in.
func (s *ChefService) Get(ctx context.Context, id uint64) (*model.Chef, error) {
	return s.chefs.GetByID(ctx, id)
}

// List searches verified chefs.  Paging values are clamped to sane bounds.
func (s *ChefService) List(ctx context.Context, q repository.ChefSearchQuery) ([]model.Chef, int64, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	q.Cuisine = strings.TrimSpace(q.Cuisine)
	q.Location = strings.TrimSpace(q.Location)
	return s.chefs.Search(ctx, q)
}

// Create gives the caller a chef profile.  The caller's role becomes chef.
func (s *ChefService) Create(ctx context.Context, c Caller, in model.Chef) (*model.Chef, error) {
	if _, err := s.chefs.GetByUserID(ctx, c.ID); err == nil {
		return nil, repository.ErrChefExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	pr := withPriceDefaults(in.PriceRange)
	if err := checkPriceRange(pr); err != nil {
		return nil, err
	}
	profile := &model.Chef{
		UserID:          c.ID,
		Specialty:       strings.TrimSpace(in.Specialty),
		Bio:             in.Bio,
		YearsExperience: in.YearsExperience,
		Cuisines:        nonNil(in.Cuisines),
		Certifications:  nonNil(in.Certifications),
		PriceRange:      pr,
		Location:        strings.TrimSpace(in.Location),
	}
	if err := s.chefs.Create(ctx, profile); err != nil {
		return nil, err
	}
	return s.chefs.GetByID(ctx, profile.ID)
}

// Update edits a profile.  Only its owner may.
func (s *ChefService) Update(ctx context.Context, c Caller, id uint64, p repository.ChefPatch) (*model.Chef, error) {
	current, err := s.chefs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeOwner(c, current.UserID); err != nil {
		return nil, err
	}
	if p.PriceRange != nil {
		pr := withPriceDefaults(*p.PriceRange)
		if err := checkPriceRange(pr); err != nil {
			return nil, err
		}
		p.PriceRange = &pr
	}
	if err := s.chefs.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.chefs.GetByID(ctx, id)
}

// Delete removes a profile and demotes its owner to customer.
func (s *ChefService) Delete(ctx context.Context, c Caller, id uint64) error {
	current, err := s.chefs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := AuthorizeOwner(c, current.UserID); err != nil {
		return err
	}
	return s.chefs.Delete(ctx, id)
}

func withPriceDefaults(pr model.PriceRange) model.PriceRange {
	pr.Currency = strings.ToUpper(strings.TrimSpace(pr.Currency))
	if pr.Currency == "" {
		pr.Currency = "USD"
	}
	if pr.Unit == "" {
		pr.Unit = model.PerPerson
	}
	return pr
}

func checkPriceRange(pr model.PriceRange) error {
	switch pr.Unit {
	case model.PerPerson, model.PerEvent, model.PerHour:
	default:
		return invalid("price_range.unit", "must be per_person, per_event or per_hour")
	}
	if pr.MinCents < 0 || pr.MaxCents < 0 {
		return invalid("price_range", "must not be negative")
	}
	if pr.MaxCents != 0 && pr.MaxCents < pr.MinCents {
		return invalid("price_range", "max must not be below min")
	}
	if len(pr.Currency) != 3 {
		return invalid("price_range.currency", "must be a 3-letter ISO code")
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
