package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// Authenticator resolves a raw bearer token to a caller.  *service.Gate
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (service.Caller, error)
}

// JWTAuth returns an Echo middleware that runs the authorization gate on a
// Bearer access token and stores the resulting caller in the context.
// Handlers read it back with CallerFrom.  Any failure to establish an
// identity answers 401 and the handler never runs.  A caller already
// resolved by OptionalAuth is reused.
func JWTAuth(gate Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CallerFrom(c); ok {
				return next(c)
			}
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			caller, err := authenticate(c, gate, raw)
			if errors.Is(err, service.ErrUnauthorized) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if err != nil {
				logrus.WithError(err).Error("authenticate caller failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			SetCaller(c, caller)
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller when the request carries a valid bearer
// token and otherwise lets it through as a guest.  It runs ahead of the rate
// limiter so user keyed buckets see the caller.  Protected routes still
// enforce identity with JWTAuth.
func OptionalAuth(gate Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return next(c)
			}
			caller, err := authenticate(c, gate, raw)
			if err == nil {
				SetCaller(c, caller)
			} else if !errors.Is(err, service.ErrUnauthorized) {
				logrus.WithError(err).Warn("optional authentication failed")
			}
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), true
}

func authenticate(c echo.Context, gate Authenticator, raw string) (service.Caller, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return gate.Authenticate(ctx, raw)
}
