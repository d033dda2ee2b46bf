package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
)

func SetupModerationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	moderationHandler := handler.GetModerationHandler()
	reportHandler := handler.GetReportHandler()

	admin := e.Group("/v1/admin/reports")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.ModeratorOnly)

	admin.GET("", moderationHandler.ListReports)
	admin.POST("/:id/approve", moderationHandler.ApproveReport)
	admin.POST("/:id/decline", moderationHandler.DeclineReport)
	admin.POST("/:id/complete", moderationHandler.CompleteReport)
	admin.POST("/:id/assign", moderationHandler.AssignReport, middleware.AdminOnly)
	admin.POST("/:id/recount-upvotes", reportHandler.RecountUpvotes)
}
