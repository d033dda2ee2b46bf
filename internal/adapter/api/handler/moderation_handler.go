package handler

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/usecase"
	"civicfix/pkg/response"
	"civicfix/pkg/utils"
)

type ModerationHandler struct {
	moderationUseCase *usecase.ModerationUseCase
}

func NewModerationHandler(moderationUseCase *usecase.ModerationUseCase) *ModerationHandler {
	return &ModerationHandler{
		moderationUseCase: moderationUseCase,
	}
}

type declineRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type assignRequest struct {
	Assignee string `json:"assignee"`
}

func (h *ModerationHandler) ListReports(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}
	pagination := utils.GetPaginationParams(c)

	reports, total, err := h.moderationUseCase.ListForTriage(c.Request().Context(), session,
		c.QueryParam("status"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, reports, total, pagination.Page, pagination.PageSize)
}

func (h *ModerationHandler) ApproveReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.moderationUseCase.Approve(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ModerationHandler) DeclineReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req declineRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.moderationUseCase.Decline(c.Request().Context(), session, c.Param("id"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ModerationHandler) CompleteReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.moderationUseCase.Complete(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ModerationHandler) AssignReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req assignRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
	}

	result, err := h.moderationUseCase.Assign(c.Request().Context(), session, c.Param("id"), req.Assignee)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
