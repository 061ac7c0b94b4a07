// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is wrapped by every "X not found" error so handlers can map
// all of them to 404 with a single errors.Is check.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot be performed
// because of conflicting state, such as a second chef profile for the same
// user. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrChefNotFound    = fmt.Errorf("chef %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	ErrEmailExists  = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrChefExists   = fmt.Errorf("chef profile already exists: %w", ErrConflict)
	ErrReviewExists = fmt.Errorf("booking already reviewed: %w", ErrConflict)
)

// isDuplicate reports whether err is a MySQL unique key violation (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
