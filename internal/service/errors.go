package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

// ErrUnauthorized means no valid identity: missing, malformed or expired
// token, unknown or deactivated account, bad credentials.
var ErrUnauthorized = errors.New("unauthorized")

var (
	ErrBookingNotConfirmed = fmt.Errorf("booking is not confirmed: %w", repository.ErrConflict)
	ErrBookingNotCompleted = fmt.Errorf("only completed bookings can be reviewed: %w", repository.ErrConflict)
	ErrPaymentsDisabled    = errors.New("payments are not configured")
)

// ValidationError reports a request that is well formed but semantically
// invalid.  Handlers answer it with 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }
