package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/handler"
	"github.com/iliyamo/private-chef-marketplace/internal/middleware"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
)

// RegisterBookings registers booking, review and payment endpoints.  All of
// them except the processor webhook require a valid JWT; party checks run in
// the services.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, rv *handler.ReviewHandler, p *handler.PaymentHandler, gate middleware.Authenticator) {
	g := e.Group("/bookings", middleware.JWTAuth(gate))
	g.POST("", b.Create, middleware.RequireRole(model.RoleCustomer))
	g.GET("", b.List)
	g.GET("/:id", b.Get)
	g.PATCH("/:id", b.Update)
	g.DELETE("/:id", b.Delete)

	g.POST("/:id/review", rv.Create)
	g.POST("/:id/payment-intent", p.CreateIntent)
	g.GET("/:id/payment", p.Get)

	// Signed by the processor, not by a user.
	e.POST("/payments/webhook", p.Webhook)
}
