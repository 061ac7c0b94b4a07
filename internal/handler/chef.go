package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// ChefHandler serves /chefs.  Reads are public; writes are owner only.
// Purge, when set, drops cached public responses after a successful write.
type ChefHandler struct {
	Chefs Chefs
	Purge CachePurger
}

func NewChefHandler(chefs Chefs, purge CachePurger) *ChefHandler {
	return &ChefHandler{Chefs: chefs, Purge: purge}
}

// priceRangeReq is the wire form of model.PriceRange; amounts are minor units.
type priceRangeReq struct {
	MinCents int64  `json:"min_cents" validate:"gte=0"`
	MaxCents int64  `json:"max_cents" validate:"gte=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
	Unit     string `json:"unit" validate:"omitempty,oneof=per_person per_event per_hour"`
}

func (p priceRangeReq) model() model.PriceRange {
	return model.PriceRange{
		MinCents: p.MinCents,
		MaxCents: p.MaxCents,
		Currency: p.Currency,
		Unit:     model.PriceUnit(p.Unit),
	}
}

type createChefReq struct {
	Specialty       string        `json:"specialty" validate:"required,max=255"`
	Bio             string        `json:"bio" validate:"max=5000"`
	YearsExperience int           `json:"years_experience" validate:"gte=0,lte=80"`
	Cuisines        []string      `json:"cuisines" validate:"max=30,dive,min=1,max=64"`
	Certifications  []string      `json:"certifications" validate:"max=30,dive,min=1,max=128"`
	PriceRange      priceRangeReq `json:"price_range"`
	Location        string        `json:"location" validate:"required,max=255"`
}

type updateChefReq struct {
	Specialty       *string        `json:"specialty" validate:"omitempty,min=1,max=255"`
	Bio             *string        `json:"bio" validate:"omitempty,max=5000"`
	YearsExperience *int           `json:"years_experience" validate:"omitempty,gte=0,lte=80"`
	Cuisines        *[]string      `json:"cuisines" validate:"omitempty,max=30,dive,min=1,max=64"`
	Certifications  *[]string      `json:"certifications" validate:"omitempty,max=30,dive,min=1,max=128"`
	PriceRange      *priceRangeReq `json:"price_range"`
	Location        *string        `json:"location" validate:"omitempty,min=1,max=255"`
}

// List returns verified chefs.  The body is always an array; X-Total-Count
// carries the number of matches across all pages.
func (h *ChefHandler) List(c echo.Context) error {
	q, err := parseChefQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	items, total, err := h.Chefs.List(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Chef{}
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, items)
}

func parseChefQuery(c echo.Context) (repository.ChefSearchQuery, error) {
	q := repository.ChefSearchQuery{
		Cuisine:  c.QueryParam("cuisine"),
		Location: c.QueryParam("location"),
	}
	if raw := strings.TrimSpace(c.QueryParam("featured")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &service.ValidationError{Field: "featured", Msg: "must be true or false"}
		}
		q.Featured = &v
	}
	if raw := strings.TrimSpace(c.QueryParam("minRating")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || v < 0 || v > 5 {
			return q, &service.ValidationError{Field: "minRating", Msg: "must be a number between 0 and 5"}
		}
		q.MinRating = &v
	}
	for name, dst := range map[string]*int{"page": &q.Page, "pageSize": &q.PageSize} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return q, &service.ValidationError{Field: name, Msg: "must be a positive integer"}
		}
		*dst = v
	}
	return q, nil
}

// Get returns one chef profile with its owner's name and avatar.
func (h *ChefHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	chef, err := h.Chefs.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, chef)
}

// Create gives the caller a chef profile.
func (h *ChefHandler) Create(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createChefReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	chef, err := h.Chefs.Create(ctx, caller, model.Chef{
		Specialty:       req.Specialty,
		Bio:             req.Bio,
		YearsExperience: req.YearsExperience,
		Cuisines:        req.Cuisines,
		Certifications:  req.Certifications,
		PriceRange:      req.PriceRange.model(),
		Location:        req.Location,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.Purge.run(ctx)
	return c.JSON(http.StatusCreated, chef)
}

// Update edits the caller's own profile.  Unknown fields are rejected.
func (h *ChefHandler) Update(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateChefReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, err)
	}
	patch := repository.ChefPatch{
		Specialty:       req.Specialty,
		Bio:             req.Bio,
		YearsExperience: req.YearsExperience,
		Cuisines:        req.Cuisines,
		Certifications:  req.Certifications,
		Location:        req.Location,
	}
	if req.PriceRange != nil {
		pr := req.PriceRange.model()
		patch.PriceRange = &pr
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	chef, err := h.Chefs.Update(ctx, caller, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	h.Purge.run(ctx)
	return c.JSON(http.StatusOK, chef)
}

// Delete removes the caller's own profile and demotes them to customer.
func (h *ChefHandler) Delete(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Chefs.Delete(ctx, caller, id); err != nil {
		return respondError(c, err)
	}
	h.Purge.run(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "chef profile deleted"})
}
