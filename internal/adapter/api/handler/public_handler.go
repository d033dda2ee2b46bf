package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/county"
	"civicfix/internal/usecase"
	"civicfix/pkg/logger"
)

// PublicHandler serves the unauthenticated /api endpoints. They answer with bare JSON
// bodies rather than the response envelope.
type PublicHandler struct {
	verificationUseCase *usecase.VerificationUseCase
	maxImageBytes       int64
}

func NewPublicHandler(verificationUseCase *usecase.VerificationUseCase, maxImageBytes int64) *PublicHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = 10 << 20
	}
	return &PublicHandler{
		verificationUseCase: verificationUseCase,
		maxImageBytes:       maxImageBytes,
	}
}

type verifyImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
	Category    string `json:"category"`
}

type validateCountyRequest struct {
	County *string `json:"county"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *PublicHandler) VerifyImage(c echo.Context) error {
	var req verifyImageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
	}
	if req.ImageBase64 == "" || strings.TrimSpace(req.Category) == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "imageBase64 and category are required"})
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "imageBase64 is not valid base64"})
	}
	if int64(len(image)) > h.maxImageBytes {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "image is too large"})
	}

	verified, err := h.verificationUseCase.Verify(c.Request().Context(), image, mimetype.Detect(image).String(), req.Category)
	if err != nil {
		logger.Error("Image verification failed: %v", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Image verification failed"})
	}

	return c.JSON(http.StatusOK, map[string]bool{"isVerified": verified})
}

func (h *PublicHandler) ValidateCounty(c echo.Context) error {
	var req validateCountyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
	}
	if req.County == nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "county is required"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"isValid":  county.IsValid(*req.County),
		"counties": county.All(),
	})
}

// decodeImage accepts plain base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	encoded = strings.TrimSpace(encoded)

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(encoded)
	}
	return data, nil
}
