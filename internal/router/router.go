package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/handler"
	"github.com/iliyamo/private-chef-marketplace/internal/middleware"
)

// Handlers groups everything the route table needs.  Cache wraps the public
// chef reads; nil leaves them uncached.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Chefs    *handler.ChefHandler
	Bookings *handler.BookingHandler
	Reviews  *handler.ReviewHandler
	Payments *handler.PaymentHandler
	Ready    echo.HandlerFunc
	Gate     middleware.Authenticator
	Cache    echo.MiddlewareFunc
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers) {
	RegisterRoutes(e, h.Ready)
	RegisterAuth(e, h.Auth, h.Users, h.Gate)
	RegisterChefs(e, h.Chefs, h.Reviews, h.Gate, h.Cache)
	RegisterBookings(e, h.Bookings, h.Reviews, h.Payments, h.Gate)
}

// RegisterRoutes registers the probes.  They never require authentication.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterAuth registers signup, login and token endpoints under /auth and
// the caller's own account under /users/me.  Logout is public: it accepts a
// refresh token, a bearer token, or both.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, gate middleware.Authenticator) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	me := e.Group("/users/me", middleware.JWTAuth(gate))
	me.GET("", u.Me)
	me.PATCH("", u.UpdateMe)
	me.DELETE("", u.Deactivate)
}
