package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	messageHandler := handler.GetMessageHandler()

	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.GET("", messageHandler.GetMessages)
	messages.PATCH("/:id/read", messageHandler.MarkRead)
	messages.DELETE("/:id", messageHandler.DeleteMessage)

	admin := e.Group("/v1/admin/messages")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.AdminOnly)

	admin.POST("/sweep", messageHandler.SweepExpired)
}
