package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
	"civicfix/internal/infrastructure/ratelimit"
)

func SetupReportRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	reportHandler := handler.GetReportHandler()

	// Public routes
	e.GET("/v1/feed", reportHandler.GetFeed)

	// Protected routes
	reports := e.Group("/v1/reports")
	reports.Use(authMiddleware.Authenticate)

	reports.POST("", reportHandler.SubmitReport, middleware.RateLimit(limiter, ratelimit.ActionSubmitReport))
	reports.GET("/me", reportHandler.GetMyReports)
	reports.GET("/me/can-submit", reportHandler.CanSubmit)
	reports.GET("/:id", reportHandler.GetReport)
	reports.DELETE("/:id", reportHandler.DeleteReport)
	reports.POST("/:id/upvote", reportHandler.ToggleUpvote, middleware.RateLimit(limiter, ratelimit.ActionUpvote))
}
