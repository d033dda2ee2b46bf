package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()
	reportHandler := handler.GetReportHandler()

	me := e.Group("/v1/users/me")
	me.Use(authMiddleware.Authenticate)

	me.POST("", userHandler.EnsureProfile)
	me.GET("", userHandler.GetProfile)
	me.GET("/dashboard", userHandler.GetDashboard)
	me.GET("/upvotes", reportHandler.GetMyUpvotes)

	admin := e.Group("/v1/admin/users")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.AdminOnly)

	admin.PATCH("/:id/role", userHandler.ChangeRole)
}
