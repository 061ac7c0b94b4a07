package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// ChefRepo stores chef profiles in the `chefs` table.  A profile is the
// one-to-one extension of a user; creating one promotes the user to the
// chef role and deleting it demotes them back.
type ChefRepo struct {
	db *sql.DB
}

func NewChefRepo(db *sql.DB) *ChefRepo { return &ChefRepo{db: db} }

// ChefPatch carries the owner-editable profile columns.  Nil fields are
// left untouched.
type ChefPatch struct {
	Specialty       *string
	Bio             *string
	YearsExperience *int
	Cuisines        *[]string
	Certifications  *[]string
	PriceRange      *model.PriceRange
	Location        *string
}

const chefSelect = `SELECT
		c.id, c.user_id, c.specialty, c.bio, c.years_experience,
		c.cuisines, c.certifications,
		c.price_min_cents, c.price_max_cents, c.price_currency, c.price_unit,
		c.location, c.rating, c.review_count, c.is_verified, c.is_featured,
		c.created_at, c.updated_at,
		u.full_name, u.email, u.phone, u.avatar_url
	FROM chefs c
	JOIN users u ON u.id = c.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChef(s rowScanner) (*model.Chef, error) {
	var (
		c        model.Chef
		u        model.UserSummary
		cuisines stringList
		certs    stringList
		phone    sql.NullString
		avatar   sql.NullString
	)
	if err := s.Scan(
		&c.ID, &c.UserID, &c.Specialty, &c.Bio, &c.YearsExperience,
		&cuisines, &certs,
		&c.PriceRange.MinCents, &c.PriceRange.MaxCents, &c.PriceRange.Currency, &c.PriceRange.Unit,
		&c.Location, &c.Rating, &c.ReviewCount, &c.IsVerified, &c.IsFeatured,
		&c.CreatedAt, &c.UpdatedAt,
		&u.FullName, &u.Email, &phone, &avatar,
	); err != nil {
		return nil, err
	}
	c.Cuisines = cuisines
	c.Certifications = certs
	u.ID = c.UserID
	u.Phone = nullString(phone)
	u.AvatarURL = nullString(avatar)
	c.User = &u
	return &c, nil
}

// GetByID returns the profile with the given chefs.id.
func (r *ChefRepo) GetByID(ctx context.Context, id uint64) (*model.Chef, error) {
	c, err := scanChef(r.db.QueryRowContext(ctx, chefSelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChefNotFound
	}
	return c, err
}

// GetByUserID returns the profile owned by the given user.
func (r *ChefRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Chef, error) {
	c, err := scanChef(r.db.QueryRowContext(ctx, chefSelect+" WHERE c.user_id = ?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChefNotFound
	}
	return c, err
}

// Create inserts c and promotes its user to the chef role in one
// transaction.  Admin accounts keep their role.
func (r *ChefRepo) Create(ctx context.Context, c *model.Chef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO chefs
		(user_id, specialty, bio, years_experience, cuisines, certifications,
		 price_min_cents, price_max_cents, price_currency, price_unit, location)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.UserID, c.Specialty, c.Bio, c.YearsExperience,
		stringList(c.Cuisines), stringList(c.Certifications),
		c.PriceRange.MinCents, c.PriceRange.MaxCents, c.PriceRange.Currency, c.PriceRange.Unit,
		c.Location)
	if err != nil {
		if isDuplicate(err) {
			return ErrChefExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET role='chef' WHERE id=? AND role='customer'", c.UserID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update writes the non-nil fields of p.
func (r *ChefRepo) Update(ctx context.Context, id uint64, p ChefPatch) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if p.Specialty != nil {
		add("specialty", *p.Specialty)
	}
	if p.Bio != nil {
		add("bio", *p.Bio)
	}
	if p.YearsExperience != nil {
		add("years_experience", *p.YearsExperience)
	}
	if p.Cuisines != nil {
		add("cuisines", stringList(*p.Cuisines))
	}
	if p.Certifications != nil {
		add("certifications", stringList(*p.Certifications))
	}
	if p.PriceRange != nil {
		add("price_min_cents", p.PriceRange.MinCents)
		add("price_max_cents", p.PriceRange.MaxCents)
		add("price_currency", p.PriceRange.Currency)
		add("price_unit", p.PriceRange.Unit)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE chefs SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	return expectRow(res, ErrChefNotFound)
}

// Delete removes the profile and demotes its owner back to customer.
// Bookings reference users.id and therefore survive.
func (r *ChefRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID uint64
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM chefs WHERE id=? FOR UPDATE", id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrChefNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chefs WHERE id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET role='customer' WHERE id=? AND role='chef'", userID); err != nil {
		return err
	}
	return tx.Commit()
}

// recomputeRatingSQL refreshes the rating aggregate from the reviews table.
// The suffix selects which chefs are refreshed.
const recomputeRatingSQL = `UPDATE chefs c SET
		c.rating = COALESCE((SELECT ROUND(AVG(r.rating), 2) FROM reviews r WHERE r.chef_id = c.user_id), 0),
		c.review_count = (SELECT COUNT(*) FROM reviews r WHERE r.chef_id = c.user_id)`

// RecomputeAllRatings rebuilds every chef's rating and review_count and
// returns the number of profiles touched.
func (r *ChefRepo) RecomputeAllRatings(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, recomputeRatingSQL)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
