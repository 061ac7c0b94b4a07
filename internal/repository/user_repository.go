package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// UserRepo stores accounts in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ProfilePatch carries the self-editable account columns.  Nil fields are
// left untouched.
type ProfilePatch struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

const userColumns = "id,email,password_hash,full_name,phone,avatar_url,role,is_verified,is_active,created_at,updated_at"

// Create inserts u (with an already hashed password) and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, phone, role) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.IsActive = true
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		u      model.User
		phone  sql.NullString
		avatar sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &phone, &avatar,
		&u.Role, &u.IsVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Phone = nullString(phone)
	u.AvatarURL = nullString(avatar)
	return &u, nil
}

// UpdateProfile writes the non-nil fields of p.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfilePatch) error {
	set := []string{}
	args := []any{}
	if p.FullName != nil {
		set = append(set, "full_name=?")
		args = append(args, *p.FullName)
	}
	if p.Phone != nil {
		set = append(set, "phone=?")
		args = append(args, emptyAsNull(*p.Phone))
	}
	if p.AvatarURL != nil {
		set = append(set, "avatar_url=?")
		args = append(args, emptyAsNull(*p.AvatarURL))
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=? AND is_active=1", args...)
	if err != nil {
		return err
	}
	return expectRow(res, ErrUserNotFound)
}

// Deactivate clears is_active.  The row is kept so bookings and reviews
// still resolve their parties.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=0 WHERE id=? AND is_active=1", id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrUserNotFound)
}

// expectRow maps a zero RowsAffected to notFound.
func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func emptyAsNull(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
