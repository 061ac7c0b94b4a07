package model

import "time"

// Role is the account type stored in users.role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleChef     Role = "chef"
	RoleAdmin    Role = "admin"
)

// User represents a row in the `users` table.  Accounts are never hard
// deleted; deactivation clears IsActive.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Role         Role      `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the subset of a user joined into chef and booking reads.
type UserSummary struct {
	ID        uint64  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
