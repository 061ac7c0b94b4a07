package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// ReviewRepo stores booking reviews and keeps the reviewed chef's rating
// aggregate in step.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv and recomputes the chef's rating and review_count in
// the same transaction.  A second review for a booking is ErrReviewExists.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO reviews
		(booking_id, customer_id, chef_id, rating, food_rating, service_rating,
		 value_rating, presentation_rating, comment)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rv.BookingID, rv.CustomerID, rv.ChefID, rv.Rating,
		rv.FoodRating, rv.ServiceRating, rv.ValueRating, rv.PresentationRating, rv.Comment)
	if err != nil {
		if isDuplicate(err) {
			return ErrReviewExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, recomputeRatingSQL+" WHERE c.user_id = ?", rv.ChefID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ListByChef returns a page of reviews for the chef user, newest first.
func (r *ReviewRepo) ListByChef(ctx context.Context, chefUserID uint64, limit, offset int) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
			rv.id, rv.booking_id, rv.customer_id, rv.chef_id, rv.rating,
			rv.food_rating, rv.service_rating, rv.value_rating, rv.presentation_rating,
			rv.comment, rv.created_at, u.full_name
		FROM reviews rv
		JOIN users u ON u.id = rv.customer_id
		WHERE rv.chef_id = ?
		ORDER BY rv.created_at DESC, rv.id DESC
		LIMIT ? OFFSET ?`, chefUserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var (
			rv                            model.Review
			food, service, value, present sql.NullInt64
		)
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.CustomerID, &rv.ChefID, &rv.Rating,
			&food, &service, &value, &present,
			&rv.Comment, &rv.CreatedAt, &rv.CustomerName); err != nil {
			return nil, err
		}
		rv.FoodRating = nullInt(food)
		rv.ServiceRating = nullInt(service)
		rv.ValueRating = nullInt(value)
		rv.PresentationRating = nullInt(present)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
