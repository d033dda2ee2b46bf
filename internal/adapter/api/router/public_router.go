package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
	"civicfix/internal/infrastructure/ratelimit"
)

// SetupPublicRouter mounts the unauthenticated form-support endpoints.
func SetupPublicRouter(e *echo.Echo, limiter *ratelimit.RateLimiter) {
	publicHandler := handler.GetPublicHandler()

	public := e.Group("/api")
	public.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	public.POST("/verify-image", publicHandler.VerifyImage, middleware.RateLimit(limiter, ratelimit.ActionVerifyImage))
	public.POST("/validate-county", publicHandler.ValidateCounty)
}
