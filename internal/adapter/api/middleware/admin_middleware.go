package middleware

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/entity"
	"civicfix/pkg/errors"
	"civicfix/pkg/response"
)

// RequireRole admits sessions whose role is one of roles. It runs after Authenticate.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := SessionFrom(c)
			if !ok {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}

			for _, role := range roles {
				if session.Role == role {
					return next(c)
				}
			}

			return response.Error(c, errors.Forbidden("Insufficient privileges", nil))
		}
	}
}

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(entity.RoleAdmin)(next)
}

func ModeratorOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(entity.RoleAdmin, entity.RoleModerator)(next)
}
