package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

type ReviewHandler struct {
	Reviews Reviews
	Purge   CachePurger
}

func NewReviewHandler(reviews Reviews, purge CachePurger) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Purge: purge}
}

type createReviewReq struct {
	Rating             int    `json:"rating" validate:"required,min=1,max=5"`
	FoodRating         *int   `json:"food_rating" validate:"omitempty,min=1,max=5"`
	ServiceRating      *int   `json:"service_rating" validate:"omitempty,min=1,max=5"`
	ValueRating        *int   `json:"value_rating" validate:"omitempty,min=1,max=5"`
	PresentationRating *int   `json:"presentation_rating" validate:"omitempty,min=1,max=5"`
	Comment            string `json:"comment" validate:"max=2000"`
}

// Create reviews a completed booking.  The chef's rating changes, so cached
// chef reads are purged.
func (h *ReviewHandler) Create(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req createReviewReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rv, err := h.Reviews.Create(ctx, caller, bookingID, service.NewReview{
		Rating:             req.Rating,
		FoodRating:         req.FoodRating,
		ServiceRating:      req.ServiceRating,
		ValueRating:        req.ValueRating,
		PresentationRating: req.PresentationRating,
		Comment:            req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.Purge.run(ctx)
	return c.JSON(http.StatusCreated, rv)
}

// ListForChef is public: GET /chefs/:id/reviews?page=&pageSize=.
func (h *ReviewHandler) ListForChef(c echo.Context) error {
	chefID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Reviews.ListForChef(ctx, chefID, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
