package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/handler"
	"github.com/iliyamo/private-chef-marketplace/internal/middleware"
)

// RegisterChefs registers the chef directory.  Reads are public and go
// through the response cache; writes need a valid JWT and ownership is
// checked in the service.
func RegisterChefs(e *echo.Echo, ch *handler.ChefHandler, rv *handler.ReviewHandler, gate middleware.Authenticator, cache echo.MiddlewareFunc) {
	var public []echo.MiddlewareFunc
	if cache != nil {
		public = append(public, cache)
	}
	e.GET("/chefs", ch.List, public...)
	e.GET("/chefs/:id", ch.Get, public...)
	e.GET("/chefs/:id/reviews", rv.ListForChef, public...)

	auth := middleware.JWTAuth(gate)
	e.POST("/chefs", ch.Create, auth)
	e.PATCH("/chefs/:id", ch.Update, auth)
	e.DELETE("/chefs/:id", ch.Delete, auth)
}
