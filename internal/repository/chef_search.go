package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// ChefSearchQuery defines filters & pagination for the public chef list.
// Only verified chefs are ever listed.
type ChefSearchQuery struct {
	Featured  *bool
	Cuisine   string
	Location  string
	MinRating *float64
	Page      int
	PageSize  int
}

// Search returns one page of verified chefs ordered by rating, best first,
// together with the total number of matches.
func (r *ChefRepo) Search(ctx context.Context, q ChefSearchQuery) ([]model.Chef, int64, error) {
	where := []string{"c.is_verified = 1"}
	args := []any{}

	if q.Featured != nil {
		where = append(where, "c.is_featured = ?")
		args = append(args, *q.Featured)
	}
	if q.Cuisine != "" {
		where = append(where, "JSON_CONTAINS(LOWER(c.cuisines), JSON_QUOTE(?))")
		args = append(args, strings.ToLower(q.Cuisine))
	}
	if q.Location != "" {
		where = append(where, "LOWER(c.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	if q.MinRating != nil {
		where = append(where, "c.rating >= ?")
		args = append(args, *q.MinRating)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chefs c WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := chefSelect + `
		WHERE ` + cond + `
		ORDER BY c.rating DESC, c.id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Chef, 0, limit)
	for rows.Next() {
		c, err := scanChef(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
