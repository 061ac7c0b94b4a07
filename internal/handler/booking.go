package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// BookingHandler serves /bookings.  Every route runs behind JWTAuth; party
// checks happen in the booking service.
type BookingHandler struct {
	Bookings Bookings
}

func NewBookingHandler(b Bookings) *BookingHandler { return &BookingHandler{Bookings: b} }

type createBookingReq struct {
	ChefID              uint64   `json:"chef_id" validate:"required"`
	EventDate           string   `json:"event_date" validate:"required,date"`
	EventTime           string   `json:"event_time" validate:"required,clock"`
	GuestCount          int      `json:"guest_count" validate:"required,min=1,max=500"`
	ServiceType         string   `json:"service_type" validate:"required,max=64"`
	Address             string   `json:"address" validate:"required,max=500"`
	SpecialRequests     *string  `json:"special_requests" validate:"omitempty,max=2000"`
	DietaryRequirements []string `json:"dietary_requirements" validate:"omitempty,max=20,dive,min=1,max=64"`
}

// updateBookingReq is decoded strictly; its nil fields were not submitted.
type updateBookingReq struct {
	Status              *string   `json:"status"`
	EventDate           *string   `json:"event_date" validate:"omitempty,date"`
	EventTime           *string   `json:"event_time" validate:"omitempty,clock"`
	GuestCount          *int      `json:"guest_count" validate:"omitempty,min=1,max=500"`
	SpecialRequests     *string   `json:"special_requests" validate:"omitempty,max=2000"`
	DietaryRequirements *[]string `json:"dietary_requirements" validate:"omitempty,max=20,dive,min=1,max=64"`
	Address             *string   `json:"address" validate:"omitempty,max=500"`
}

// Create places a booking.  Customers only (enforced by RequireRole and again
// in the service).
func (h *BookingHandler) Create(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createBookingReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Bookings.Create(ctx, caller, service.NewBooking{
		ChefID:              req.ChefID,
		EventDate:           req.EventDate,
		EventTime:           req.EventTime,
		GuestCount:          req.GuestCount,
		ServiceType:         req.ServiceType,
		Address:             req.Address,
		SpecialRequests:     req.SpecialRequests,
		DietaryRequirements: req.DietaryRequirements,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns the caller's bookings, optionally filtered by ?status=.
func (h *BookingHandler) List(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Bookings.List(ctx, caller, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BookingHandler) Get(c echo.Context) error {
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

	b, err := h.Bookings.Get(ctx, caller, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Update applies a partial update.  Fields the caller may not change are
// dropped and listed in the X-Ignored-Fields header.
func (h *BookingHandler) Update(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateBookingReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, changes, err := h.Bookings.Update(ctx, caller, id, booking.Update{
		Status:              req.Status,
		EventDate:           req.EventDate,
		EventTime:           req.EventTime,
		GuestCount:          req.GuestCount,
		SpecialRequests:     req.SpecialRequests,
		DietaryRequirements: req.DietaryRequirements,
		Address:             req.Address,
	})
	if err != nil {
		return respondError(c, err)
	}
	if len(changes.Ignored) > 0 {
		c.Response().Header().Set("X-Ignored-Fields", changes.IgnoredHeader())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c echo.Context) error {
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

	if err := h.Bookings.Delete(ctx, caller, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking deleted"})
}
