package handler

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/county"
	"civicfix/internal/domain/entity"
	"civicfix/internal/usecase"
	"civicfix/pkg/response"
)

type LeaderboardHandler struct {
	leaderboardUseCase *usecase.LeaderboardUseCase
}

func NewLeaderboardHandler(leaderboardUseCase *usecase.LeaderboardUseCase) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardUseCase: leaderboardUseCase,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(c echo.Context) error {
	entries, err := h.leaderboardUseCase.Get(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, entries)
}

func (h *LeaderboardHandler) GetCounties(c echo.Context) error {
	return response.Success(c, county.All())
}

func (h *LeaderboardHandler) GetCategories(c echo.Context) error {
	return response.Success(c, entity.Categories)
}
