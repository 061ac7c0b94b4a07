package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"

	"github.com/iliyamo/private-chef-marketplace/internal/config"
)

// CORS adapts rs/cors to echo.  Preflight requests are answered by rs/cors
// and never reach the router.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{echo.HeaderAuthorization, echo.HeaderContentType, "Stripe-Signature"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Ignored-Fields", echo.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
		Debug:            cfg.Debug,
	})
	return echo.WrapMiddleware(c.Handler)
}
