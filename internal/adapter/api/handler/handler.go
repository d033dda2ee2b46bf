package handler

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/adapter/api/middleware"
	"civicfix/internal/domain/entity"
	"civicfix/internal/usecase"
	"civicfix/pkg/errors"
)

var (
	reportHandler      *ReportHandler
	moderationHandler  *ModerationHandler
	messageHandler     *MessageHandler
	leaderboardHandler *LeaderboardHandler
	userHandler        *UserHandler
	publicHandler      *PublicHandler
)

type Config struct {
	MaxImageBytes int64
}

func Setup(
	reportUseCase *usecase.ReportUseCase,
	moderationUseCase *usecase.ModerationUseCase,
	messageUseCase *usecase.MessageUseCase,
	leaderboardUseCase *usecase.LeaderboardUseCase,
	userUseCase *usecase.UserUseCase,
	verificationUseCase *usecase.VerificationUseCase,
	cfg Config,
) {
	reportHandler = NewReportHandler(reportUseCase, cfg.MaxImageBytes)
	moderationHandler = NewModerationHandler(moderationUseCase)
	messageHandler = NewMessageHandler(messageUseCase)
	leaderboardHandler = NewLeaderboardHandler(leaderboardUseCase)
	userHandler = NewUserHandler(userUseCase)
	publicHandler = NewPublicHandler(verificationUseCase, cfg.MaxImageBytes)
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

func GetModerationHandler() *ModerationHandler {
	return moderationHandler
}

func GetMessageHandler() *MessageHandler {
	return messageHandler
}

func GetLeaderboardHandler() *LeaderboardHandler {
	return leaderboardHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetPublicHandler() *PublicHandler {
	return publicHandler
}

func currentSession(c echo.Context) (entity.Session, error) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return entity.Session{}, errors.Unauthorized("Authentication required", nil)
	}
	return session, nil
}
