package handler

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/entity"
	"civicfix/internal/usecase"
	"civicfix/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type ensureProfileRequest struct {
	DisplayName string `json:"displayName" validate:"max=80"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user moderator admin"`
}

func (h *UserHandler) EnsureProfile(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req ensureProfileRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.EnsureProfile(c.Request().Context(), session, req.DisplayName)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.GetProfile(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetDashboard(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	dashboard, err := h.userUseCase.Dashboard(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dashboard)
}

func (h *UserHandler) ChangeRole(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.ChangeRole(c.Request().Context(), session, c.Param("id"), entity.Role(req.Role))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
