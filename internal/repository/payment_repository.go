package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// PaymentRepo records payment intents created with the processor.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, booking_id, amount_cents, currency, status, provider, provider_ref, idempotency_key, created_at, updated_at"

func scanPayment(s rowScanner) (*model.Payment, error) {
	var p model.Payment
	err := s.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Currency, &p.Status,
		&p.Provider, &p.ProviderRef, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p and sets its ID.  A second pending payment for the same
// booking, or a reused processor reference or key, is ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO payments
		(booking_id, amount_cents, currency, status, provider, provider_ref, idempotency_key)
		VALUES (?,?,?,?,?,?,?)`,
		p.BookingID, p.AmountCents, p.Currency, p.Status, p.Provider, p.ProviderRef, p.IdempotencyKey)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// LatestForBooking returns the most recent payment attempt for a booking.
func (r *PaymentRepo) LatestForBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE booking_id=? ORDER BY id DESC LIMIT 1", bookingID))
}

// CountForBooking returns how many payment attempts a booking has had.
func (r *PaymentRepo) CountForBooking(ctx context.Context, bookingID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments WHERE booking_id=?", bookingID).Scan(&n)
	return n, err
}

// SetStatusByRef updates the payment identified by the processor reference.
func (r *PaymentRepo) SetStatusByRef(ctx context.Context, providerRef string, status model.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE provider_ref=?", status, providerRef)
	if err != nil {
		return err
	}
	return expectRow(res, ErrPaymentNotFound)
}
