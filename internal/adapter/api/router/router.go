package router

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/handler"
	"civicfix/internal/adapter/api/middleware"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/internal/infrastructure/ratelimit"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	limiter *ratelimit.RateLimiter,
	healthHandler *handler.HealthHandler,
	wsHandler *handler.WebSocketHandler,
	m *metrics.Metrics,
) {
	SetupHealthRouter(e, healthHandler, m)
	SetupPublicRouter(e, limiter)
	SetupReportRouter(e, authMiddleware, limiter)
	SetupModerationRouter(e, authMiddleware)
	SetupMessageRouter(e, authMiddleware)
	SetupLeaderboardRouter(e)
	SetupUserRouter(e, authMiddleware)
	SetupWebSocketRouter(e, authMiddleware, wsHandler)
}
