package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// ErrStatusChanged is returned by Apply when no row matched a guarded status
// write: the booking moved to a status from which the target is no longer
// reachable, or it is gone.  Nothing was written.
var ErrStatusChanged = fmt.Errorf("booking status changed concurrently: %w", ErrConflict)

// BookingRepo provides CRUD operations for bookings.  Event dates are
// stored as DATE and always read back as YYYY-MM-DD strings.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Ownership is the slice of a booking the authorization gate needs.
type Ownership struct {
	ID         uint64
	CustomerID uint64
	ChefID     uint64
	Status     booking.Status
}

// BookingPatch is a planned partial update.
type BookingPatch struct {
	Changes         booking.Changes
	TotalPriceCents *int64
}

const bookingSelect = `SELECT
		b.id, b.customer_id, b.chef_id,
		DATE_FORMAT(b.event_date, '%Y-%m-%d') AS event_date,
		b.event_time, b.guest_count, b.service_type, b.status,
		b.total_price_cents, b.currency, b.special_requests,
		b.dietary_requirements, b.address, b.created_at, b.updated_at,
		cu.full_name, cu.email, cu.phone, cu.avatar_url,
		ch.full_name, ch.email, ch.phone, ch.avatar_url,
		COALESCE(cp.id, 0), COALESCE(cp.specialty, ''), COALESCE(cp.location, '')
	FROM bookings b
	JOIN users cu      ON cu.id = b.customer_id
	JOIN users ch      ON ch.id = b.chef_id
	LEFT JOIN chefs cp ON cp.user_id = b.chef_id`

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                    model.Booking
		cust                 model.UserSummary
		chef                 model.BookingChef
		special              sql.NullString
		dietary              stringList
		custPhone, custAvtr  sql.NullString
		chefPhone, chefAvatr sql.NullString
	)
	if err := s.Scan(
		&b.ID, &b.CustomerID, &b.ChefID,
		&b.EventDate, &b.EventTime, &b.GuestCount, &b.ServiceType, &b.Status,
		&b.TotalPriceCents, &b.Currency, &special,
		&dietary, &b.Address, &b.CreatedAt, &b.UpdatedAt,
		&cust.FullName, &cust.Email, &custPhone, &custAvtr,
		&chef.FullName, &chef.Email, &chefPhone, &chefAvatr,
		&chef.ChefProfileID, &chef.Specialty, &chef.Location,
	); err != nil {
		return nil, err
	}
	b.SpecialRequests = nullString(special)
	b.DietaryRequirements = dietary
	cust.ID = b.CustomerID
	cust.Phone = nullString(custPhone)
	cust.AvatarURL = nullString(custAvtr)
	chef.ID = b.ChefID
	chef.Phone = nullString(chefPhone)
	chef.AvatarURL = nullString(chefAvatr)
	b.Customer = &cust
	b.Chef = &chef
	return &b, nil
}

// Create inserts b and sets its ID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO bookings
		(customer_id, chef_id, event_date, event_time, guest_count, service_type,
		 status, total_price_cents, currency, special_requests, dietary_requirements, address)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.CustomerID, b.ChefID, b.EventDate, b.EventTime, b.GuestCount, b.ServiceType,
		b.Status, b.TotalPriceCents, b.Currency, b.SpecialRequests, stringList(b.DietaryRequirements), b.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns the booking with both parties joined in.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetOwnership reads only the owner fields and status of a booking.
func (r *BookingRepo) GetOwnership(ctx context.Context, id uint64) (Ownership, error) {
	o := Ownership{ID: id}
	err := r.db.QueryRowContext(ctx,
		"SELECT customer_id, chef_id, status FROM bookings WHERE id = ?", id).
		Scan(&o.CustomerID, &o.ChefID, &o.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrBookingNotFound
	}
	return o, err
}

// ListForUser returns the bookings where userID is either party, most
// recent event first.  A nil status lists every status.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64, status *booking.Status) ([]model.Booking, error) {
	q := bookingSelect + " WHERE (b.customer_id = ? OR b.chef_id = ?)"
	args := []any{userID, userID}
	if status != nil {
		q += " AND b.status = ?"
		args = append(args, *status)
	}
	q += " ORDER BY b.event_date DESC, b.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Apply writes exactly the columns present in p with a single UPDATE keyed
// by id, so concurrent patches touching different columns both persist.
// A status write additionally requires the row to be in a status from which
// the target is still reachable, so a concurrent legal move does not block
// it but a terminal state does.
func (r *BookingRepo) Apply(ctx context.Context, id uint64, p BookingPatch) error {
	ch := p.Changes
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if ch.Status != nil {
		add("status", *ch.Status)
	}
	if ch.EventDate != nil {
		add("event_date", *ch.EventDate)
	}
	if ch.EventTime != nil {
		add("event_time", *ch.EventTime)
	}
	if ch.GuestCount != nil {
		add("guest_count", *ch.GuestCount)
	}
	if ch.SpecialRequests != nil {
		add("special_requests", emptyAsNull(*ch.SpecialRequests))
	}
	if ch.DietaryRequirements != nil {
		add("dietary_requirements", stringList(*ch.DietaryRequirements))
	}
	if ch.Address != nil {
		add("address", *ch.Address)
	}
	if p.TotalPriceCents != nil {
		add("total_price_cents", *p.TotalPriceCents)
	}
	if len(set) == 0 {
		return nil
	}

	q := "UPDATE bookings SET " + strings.Join(set, ", ") + " WHERE id=?"
	args = append(args, id)
	notFound := ErrBookingNotFound
	if ch.Status != nil {
		sources := booking.Sources(*ch.Status)
		if len(sources) == 0 {
			return ErrStatusChanged
		}
		q += " AND status IN (?" + strings.Repeat(",?", len(sources)-1) + ")"
		for _, s := range sources {
			args = append(args, s)
		}
		notFound = ErrStatusChanged
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectRow(res, notFound)
}

// Delete removes a booking; its review and payments cascade.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrBookingNotFound)
}
