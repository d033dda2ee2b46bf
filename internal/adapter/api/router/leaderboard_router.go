package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
)

func SetupLeaderboardRouter(e *echo.Echo) {
	leaderboardHandler := handler.GetLeaderboardHandler()

	e.GET("/v1/leaderboard", leaderboardHandler.GetLeaderboard)
	e.GET("/v1/counties", leaderboardHandler.GetCounties)
	e.GET("/v1/categories", leaderboardHandler.GetCategories)
}
