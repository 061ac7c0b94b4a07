package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/queue"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

const dateLayout = "2006-01-02"

// NewBooking is a booking request from a customer.  ChefID is the chef's
// user id.
type NewBooking struct {
	ChefID              uint64
	EventDate           string
	EventTime           string
	GuestCount          int
	ServiceType         string
	Address             string
	SpecialRequests     *string
	DietaryRequirements []string
}

// BookingService is the façade over bookings.  Every single-booking call
// re-reads the owner fields and runs the gate before touching the row.
type BookingService struct {
	bookings BookingStore
	chefs    ChefStore
	users    UserStore
	events   EventPublisher
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, chefs ChefStore, users UserStore, events EventPublisher) *BookingService {
	if events == nil {
		events = NopPublisher{}
	}
	return &BookingService{bookings: bookings, chefs: chefs, users: users, events: events, now: time.Now}
}

// Create places a pending booking with a chef.  Only customers may book.
func (s *BookingService) Create(ctx context.Context, c Caller, in NewBooking) (*model.Booking, error) {
	if c.Role != model.RoleCustomer {
		return nil, repository.ErrForbidden
	}
	if err := s.checkEventDate(in.EventDate); err != nil {
		return nil, err
	}
	if in.GuestCount < 1 {
		return nil, invalid("guest_count", "must be at least 1")
	}

	chefUser, err := s.users.GetByID(ctx, in.ChefID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrChefNotFound
	}
	if err != nil {
		return nil, err
	}
	if chefUser.Role != model.RoleChef || !chefUser.IsActive {
		return nil, repository.ErrChefNotFound
	}
	profile, err := s.chefs.GetByUserID(ctx, in.ChefID)
	if err != nil {
		return nil, err
	}

	dietary := in.DietaryRequirements
	if dietary == nil {
		dietary = []string{}
	}
	b := &model.Booking{
		CustomerID:          c.ID,
		ChefID:              in.ChefID,
		EventDate:           in.EventDate,
		EventTime:           in.EventTime,
		GuestCount:          in.GuestCount,
		ServiceType:         in.ServiceType,
		Status:              booking.StatusPending,
		TotalPriceCents:     profile.PriceRange.QuoteCents(in.GuestCount),
		Currency:            profile.PriceRange.Currency,
		SpecialRequests:     in.SpecialRequests,
		DietaryRequirements: dietary,
		Address:             in.Address,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	created, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewBookingEvent(queue.BookingCreated, created, c.ID))
	return created, nil
}

// Get returns a booking to one of its parties.
func (s *BookingService) Get(ctx context.Context, c Caller, id uint64) (*model.Booking, error) {
	o, err := s.bookings.GetOwnership(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := AuthorizeBooking(c, o); err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, id)
}

// List returns the caller's bookings on either side.  An empty status lists
// all of them.
func (s *BookingService) List(ctx context.Context, c Caller, status string) ([]model.Booking, error) {
	var filter *booking.Status
	if status != "" {
		st, err := booking.ParseStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		filter = &st
	}
	return s.bookings.ListForUser(ctx, c.ID, filter)
}

// Update applies the part of u the caller's party may change.  Disallowed
// statuses and fields are skipped and reported in the returned Changes.
func (s *BookingService) Update(ctx context.Context, c Caller, id uint64, u booking.Update) (*model.Booking, booking.Changes, error) {
	o, err := s.bookings.GetOwnership(ctx, id)
	if err != nil {
		return nil, booking.Changes{}, err
	}
	party, err := AuthorizeBooking(c, o)
	if err != nil {
		return nil, booking.Changes{}, err
	}

	ch := booking.Plan(party, o.Status, u)
	if ch.EventDate != nil {
		if err := s.checkEventDate(*ch.EventDate); err != nil {
			return nil, ch, err
		}
	}
	if ch.GuestCount != nil && *ch.GuestCount < 1 {
		return nil, ch, invalid("guest_count", "must be at least 1")
	}
	if !ch.Empty() {
		patch := repository.BookingPatch{Changes: ch}
		if ch.GuestCount != nil {
			total, err := s.quote(ctx, o.ChefID, *ch.GuestCount)
			if err != nil {
				return nil, ch, err
			}
			patch.TotalPriceCents = total
		}
		err := s.bookings.Apply(ctx, id, patch)
		if errors.Is(err, repository.ErrStatusChanged) {
			// A concurrent write left the booking where the requested status
			// is unreachable.  Drop the status like any other disallowed
			// change and keep the remaining fields.
			ch.Status = nil
			ch.Ignored = append(ch.Ignored, "status")
			patch.Changes = ch
			err = s.bookings.Apply(ctx, id, patch)
		}
		if err != nil {
			return nil, ch, err
		}
	}
	if len(ch.Ignored) > 0 {
		logrus.WithFields(logrus.Fields{
			"booking_id": id,
			"user_id":    c.ID,
			"party":      party,
			"ignored":    ch.Ignored,
		}).Info("booking update: fields ignored")
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ch, err
	}
	if ch.Status != nil {
		ev := queue.NewBookingEvent(queue.BookingStatusChanged, b, c.ID)
		ev.PreviousStatus = string(o.Status)
		s.publish(ctx, ev)
	}
	return b, ch, nil
}

// Delete removes a booking.  Only its customer may do so.
func (s *BookingService) Delete(ctx context.Context, c Caller, id uint64) error {
	o, err := s.bookings.GetOwnership(ctx, id)
	if err != nil {
		return err
	}
	party, err := AuthorizeBooking(c, o)
	if err != nil {
		return err
	}
	if party != booking.PartyCustomer {
		return repository.ErrForbidden
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, queue.NewBookingEvent(queue.BookingDeleted, b, c.ID))
	return nil
}

// quote prices guests with the chef's current range.  A chef without a
// profile keeps the stored total (nil).
func (s *BookingService) quote(ctx context.Context, chefUserID uint64, guests int) (*int64, error) {
	profile, err := s.chefs.GetByUserID(ctx, chefUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	total := profile.PriceRange.QuoteCents(guests)
	return &total, nil
}

func (s *BookingService) checkEventDate(raw string) error {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return invalid("event_date", "must be YYYY-MM-DD")
	}
	today, _ := time.Parse(dateLayout, s.now().UTC().Format(dateLayout))
	if d.Before(today) {
		return invalid("event_date", "must not be in the past")
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, ev queue.BookingEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Type,
			"booking_id": ev.BookingID,
		}).Warn("booking event not published")
	}
}
