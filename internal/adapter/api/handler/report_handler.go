package handler

import (
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/entity"
	"civicfix/internal/usecase"
	"civicfix/pkg/errors"
	"civicfix/pkg/response"
	"civicfix/pkg/utils"
)

type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
	maxImageBytes int64
}

func NewReportHandler(reportUseCase *usecase.ReportUseCase, maxImageBytes int64) *ReportHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = 10 << 20
	}
	return &ReportHandler{
		reportUseCase: reportUseCase,
		maxImageBytes: maxImageBytes,
	}
}

// submitReportRequest is the text part of the report form. Fields are declared in form
// order so the first failing field is the one reported.
type submitReportRequest struct {
	SubmissionID string `form:"submissionId"`
	Category     string `form:"category" validate:"required,category"`
	Description  string `form:"description" validate:"required,max=150"`
	AddressLine1 string `form:"addressLine1" validate:"required"`
	AddressLine2 string `form:"addressLine2"`
	County       string `form:"county" validate:"required,county"`
	Eircode      string `form:"eircode" validate:"required"`
}

// SubmitReport accepts the report form as multipart/form-data with the photo in "image".
func (h *ReportHandler) SubmitReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	image, err := h.readImage(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req submitReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid report form", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	location, err := parseLocation(c)
	if err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.Submit(c.Request().Context(), session, usecase.SubmitReportInput{
		SubmissionID: req.SubmissionID,
		Image:        image,
		Category:     req.Category,
		Description:  req.Description,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		County:       req.County,
		Eircode:      req.Eircode,
		Location:     location,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, report)
}

func (h *ReportHandler) readImage(c echo.Context) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, errors.Validation("image", "A photo of the issue is required")
	}
	if file.Size > h.maxImageBytes {
		return nil, errors.Validation("image", "The photo is too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, errors.BadRequest("Failed to read image", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxImageBytes+1))
	if err != nil {
		return nil, errors.BadRequest("Failed to read image", err)
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, errors.Validation("image", "The photo is too large")
	}

	return data, nil
}

// parseLocation returns nil when no fix was sent; the use case reports that as a missing location.
func parseLocation(c echo.Context) (*entity.GeoPoint, error) {
	latStr := strings.TrimSpace(c.FormValue("latitude"))
	lngStr := strings.TrimSpace(c.FormValue("longitude"))
	if latStr == "" || lngStr == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.Validation("location", "Latitude must be a number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.Validation("location", "Longitude must be a number")
	}
	accuracy, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("accuracy")), 64)
	if err != nil {
		return nil, errors.Validation("location", "Location accuracy is required")
	}

	return &entity.GeoPoint{Latitude: lat, Longitude: lng, Accuracy: accuracy}, nil
}

func (h *ReportHandler) CanSubmit(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	ok, err := h.reportUseCase.CanSubmit(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"canSubmit": ok})
}

func (h *ReportHandler) DeleteReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.reportUseCase.DeleteOwn(c.Request().Context(), session, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Report deleted"})
}

func (h *ReportHandler) GetMyReports(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	reports, err := h.reportUseCase.ListMine(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, reports)
}

func (h *ReportHandler) GetReport(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.Get(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *ReportHandler) GetFeed(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	reports, total, err := h.reportUseCase.Feed(c.Request().Context(), usecase.FeedFilter{
		County:   c.QueryParam("county"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
		Limit:    pagination.PageSize,
		Offset:   pagination.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, reports, total, pagination.Page, pagination.PageSize)
}

func (h *ReportHandler) ToggleUpvote(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.reportUseCase.ToggleUpvote(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ReportHandler) GetMyUpvotes(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	upvotes, err := h.reportUseCase.MyUpvotes(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, upvotes.Flags)
}

func (h *ReportHandler) RecountUpvotes(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.reportUseCase.RecountUpvotes(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{"reportId": c.Param("id"), "upvotes": count})
}
