package middleware

// identity.go holds the context keys JWTAuth fills and the helpers that read
// them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

const (
	callerKey = "caller"
	userIDKey = "user_id"
	roleKey   = "role"
)

// CallerFrom returns the authenticated caller stored by JWTAuth.
func CallerFrom(c echo.Context) (service.Caller, bool) {
	caller, ok := c.Get(callerKey).(service.Caller)
	return caller, ok && caller.ID != 0
}

// SetCaller stores caller on the context.  Tests use it to skip the gate.
func SetCaller(c echo.Context, caller service.Caller) {
	c.Set(callerKey, caller)
	c.Set(userIDKey, caller.ID)
	c.Set(roleKey, string(caller.Role))
}

// userID returns the caller id as a string, or "anon" for guests.
func userID(c echo.Context) string {
	if caller, ok := CallerFrom(c); ok {
		return strconv.FormatUint(caller.ID, 10)
	}
	return "anon"
}
