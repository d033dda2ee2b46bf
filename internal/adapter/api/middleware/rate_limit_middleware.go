package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"civicfix/internal/infrastructure/ratelimit"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
	"civicfix/pkg/response"
)

// RateLimit limits an action per user, or per client IP for unauthenticated routes.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if session, ok := SessionFrom(c); ok {
				key = session.UserID
			}

			allowed, retryAfter := limiter.Allow(key, action)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				logger.Warn("Rate limit hit for %s on %s, retry in %ds", key, action, seconds)

				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return response.Error(c, errors.TooManyRequests("Too many requests, please slow down").
					WithDetail("retryAfter", seconds))
			}

			return next(c)
		}
	}
}
