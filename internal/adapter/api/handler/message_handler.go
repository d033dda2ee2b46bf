package handler

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/usecase"
	"civicfix/pkg/errors"
	"civicfix/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type markReadRequest struct {
	Read *bool `json:"read"`
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.messageUseCase.List(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// MarkRead defaults to marking the message read when no body is sent.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req markReadRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.Error(c, errors.BadRequest("Invalid request body", err))
		}
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}

	message, err := h.messageUseCase.MarkRead(c.Request().Context(), session, c.Param("id"), read)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.messageUseCase.Dismiss(c.Request().Context(), session, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Message deleted"})
}

func (h *MessageHandler) SweepExpired(c echo.Context) error {
	deleted, err := h.messageUseCase.Sweep(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"deleted": deleted})
}
