package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"civicfix/internal/domain/county"
	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/geo"
	"civicfix/internal/domain/repository"
	"civicfix/internal/domain/service"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Client-generated submission ids are uuids; anything path-like is refused.
var submissionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Fields a client should clear before retrying after an IMAGE_NOT_RELEVANT rejection.
var notRelevantResetFields = []string{"image", "category", "description"}

type ReportUseCase struct {
	reportRepo   repository.ReportRepository
	upvoteRepo   repository.UpvoteRepository
	blobStore    service.BlobStore
	verification *VerificationUseCase
	publisher    service.EventPublisher
	metrics      *metrics.Metrics
	newID        func() string
}

func NewReportUseCase(
	reportRepo repository.ReportRepository,
	upvoteRepo repository.UpvoteRepository,
	blobStore service.BlobStore,
	verification *VerificationUseCase,
	publisher service.EventPublisher,
	m *metrics.Metrics,
) *ReportUseCase {
	if publisher == nil {
		publisher = service.NewNoopPublisher()
	}
	return &ReportUseCase{
		reportRepo:   reportRepo,
		upvoteRepo:   upvoteRepo,
		blobStore:    blobStore,
		verification: verification,
		publisher:    publisher,
		metrics:      m,
		newID:        func() string { return uuid.New().String() },
	}
}

type SubmitReportInput struct {
	SubmissionID string
	Image        []byte
	Category     string
	Description  string
	AddressLine1 string
	AddressLine2 string
	County       string
	Eircode      string
	Location     *entity.GeoPoint
}

// Submit runs the full submission workflow. Nothing is uploaded or stored unless every
// check before the upload passes.
func (uc *ReportUseCase) Submit(ctx context.Context, session entity.Session, input SubmitReportInput) (*entity.Report, error) {
	report, contentType, err := uc.buildReport(session, input)
	if err != nil {
		uc.metrics.ObserveSubmission("invalid")
		return nil, err
	}

	if strings.TrimSpace(input.SubmissionID) != "" {
		used, err := uc.reportRepo.SubmissionExists(ctx, report.SubmissionID)
		if err != nil {
			uc.metrics.ObserveSubmission("error")
			return nil, err
		}
		if used {
			uc.metrics.ObserveSubmission("invalid")
			return nil, errors.Rejected("SUBMISSION_ID_IN_USE",
				"This submission id has already been used; start a new report").
				WithDetail("nextSubmissionId", uc.newID())
		}
	}

	pending, err := uc.reportRepo.ListPendingByUser(ctx, session.UserID)
	if err != nil {
		uc.metrics.ObserveSubmission("error")
		return nil, err
	}
	if dup := geo.FindDuplicate(report.Location, pending); dup != nil {
		uc.metrics.ObserveSubmission("duplicate")
		return nil, errors.Rejected("DUPLICATE_LOCATION",
			"You already have a pending report within 50 meters of this location").
			WithDetail("reportId", dup.ID)
	}

	locked, err := uc.reportRepo.HasPendingLock(ctx, session.UserID)
	if err != nil {
		uc.metrics.ObserveSubmission("error")
		return nil, err
	}
	if locked || len(pending) > 0 {
		uc.metrics.ObserveSubmission("pending_exists")
		return nil, pendingExists()
	}

	verified, err := uc.verification.Verify(ctx, input.Image, contentType, report.Category)
	if err != nil {
		uc.metrics.ObserveSubmission("error")
		return nil, err
	}
	if !verified {
		uc.metrics.ObserveSubmission("not_relevant")
		return nil, errors.Rejected("IMAGE_NOT_RELEVANT",
			fmt.Sprintf("The photo does not appear to show a %s issue", report.Category)).
			WithDetail("nextSubmissionId", uc.newID()).
			WithDetail("resetFields", notRelevantResetFields)
	}

	imageURL, err := uc.blobStore.UploadImage(ctx, report.UserID, report.SubmissionID, input.Image, contentType)
	if err != nil {
		uc.metrics.ObserveSubmission("error")
		return nil, errors.Infrastructure("Failed to upload image", err)
	}
	report.ImageURL = imageURL

	if err := uc.reportRepo.CreatePending(ctx, report); err != nil {
		if delErr := uc.blobStore.DeleteImage(ctx, imageURL); delErr != nil {
			logger.Error("Failed to remove orphaned image %s: %v", imageURL, delErr)
		}
		if errors.Is(err, "PENDING_REPORT_EXISTS") {
			uc.metrics.ObserveSubmission("pending_exists")
		} else {
			uc.metrics.ObserveSubmission("error")
		}
		return nil, err
	}

	uc.metrics.ObserveSubmission("created")
	uc.publish(ctx, service.EventReportSubmitted, report, nil)
	logger.WithFields(map[string]interface{}{
		"reportId":     report.ID,
		"submissionId": report.SubmissionID,
		"userId":       report.UserID,
		"county":       report.County,
	}).Info("Report submitted")

	return report, nil
}

// buildReport checks every precondition in form order and returns the report to store.
func (uc *ReportUseCase) buildReport(session entity.Session, input SubmitReportInput) (*entity.Report, string, error) {
	if len(input.Image) == 0 {
		return nil, "", errors.Validation("image", "A photo of the issue is required")
	}
	contentType := mimetype.Detect(input.Image).String()
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", errors.Validation("image", "The uploaded file is not an image")
	}

	category := strings.TrimSpace(input.Category)
	if !entity.IsValidCategory(category) {
		return nil, "", errors.Validation("category", "Select a valid issue category")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, "", errors.Validation("description", "Description is required")
	}
	if utf8.RuneCountInString(description) > entity.MaxDescriptionLength {
		return nil, "", errors.Validation("description",
			fmt.Sprintf("Description must be at most %d characters", entity.MaxDescriptionLength))
	}

	address1 := strings.TrimSpace(input.AddressLine1)
	if address1 == "" {
		return nil, "", errors.Validation("addressLine1", "Address line 1 is required")
	}

	canonicalCounty, ok := county.Normalize(input.County)
	if !ok {
		return nil, "", errors.Validation("county", "Enter a valid Irish county")
	}

	eircode := strings.ToUpper(strings.TrimSpace(input.Eircode))
	if eircode == "" {
		return nil, "", errors.Validation("eircode", "Eircode is required")
	}

	if !geo.HasCoordinates(input.Location) {
		return nil, "", errors.Validation("location", "A location fix is required")
	}
	if !geo.AccurateEnough(input.Location) {
		return nil, "", errors.Validation("location",
			fmt.Sprintf("Location accuracy must be within %.0f meters", geo.MaxAccuracyMeters))
	}

	submissionID := strings.TrimSpace(input.SubmissionID)
	if submissionID == "" {
		submissionID = uc.newID()
	} else if !submissionIDPattern.MatchString(submissionID) {
		return nil, "", errors.Validation("submissionId", "Submission id is malformed")
	}

	location := *input.Location
	return &entity.Report{
		SubmissionID: submissionID,
		UserID:       session.UserID,
		Category:     category,
		Description:  description,
		AddressLine1: address1,
		AddressLine2: strings.TrimSpace(input.AddressLine2),
		County:       canonicalCounty,
		Eircode:      eircode,
		Location:     &location,
		Status:       entity.ReportStatusPending,
	}, contentType, nil
}

// CanSubmit is the advisory check shown before the form is filled in.
func (uc *ReportUseCase) CanSubmit(ctx context.Context, session entity.Session) (bool, error) {
	locked, err := uc.reportRepo.HasPendingLock(ctx, session.UserID)
	if err != nil {
		return false, err
	}
	return !locked, nil
}

// DeleteOwn removes the caller's own pending report and its image.
func (uc *ReportUseCase) DeleteOwn(ctx context.Context, session entity.Session, id string) error {
	report, err := uc.reportRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.UserID != session.UserID {
		return errors.Forbidden("You can only delete your own reports", nil)
	}
	if report.Status != entity.ReportStatusPending {
		return errors.Rejected("INVALID_TRANSITION", "Only pending reports can be deleted").
			WithDetail("status", string(report.Status))
	}

	deleted, err := uc.reportRepo.DeletePending(ctx, id)
	if err != nil {
		return err
	}

	if deleted.ImageURL != "" {
		if err := uc.blobStore.DeleteImage(ctx, deleted.ImageURL); err != nil {
			logger.Error("Failed to delete image for report %s: %v", id, err)
		}
	}
	uc.publish(ctx, service.EventReportDeleted, deleted, nil)

	return nil
}

func (uc *ReportUseCase) ListMine(ctx context.Context, session entity.Session) ([]*entity.Report, error) {
	reports, _, err := uc.reportRepo.List(ctx, entity.ReportFilter{UserID: session.UserID})
	return reports, err
}

// Get returns a report visible to the caller. Non-public reports of other users read as missing.
func (uc *ReportUseCase) Get(ctx context.Context, session entity.Session, id string) (*entity.Report, error) {
	report, err := uc.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.Status.Public() && report.UserID != session.UserID && !session.IsModerator() {
		return nil, errors.NotFound("Report", nil)
	}
	return report, nil
}

type FeedFilter struct {
	County   string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// Feed lists approved and completed reports, newest first.
func (uc *ReportUseCase) Feed(ctx context.Context, filter FeedFilter) ([]*entity.Report, int64, error) {
	statuses := []entity.ReportStatus{entity.ReportStatusApproved, entity.ReportStatusCompleted}
	if filter.Status != "" {
		status := entity.ReportStatus(strings.ToLower(filter.Status))
		if !status.Public() {
			return nil, 0, errors.Validation("status", "Status must be approved or completed")
		}
		statuses = []entity.ReportStatus{status}
	}

	countyFilter := ""
	if filter.County != "" {
		if canonical, ok := county.Normalize(filter.County); ok {
			countyFilter = canonical
		} else {
			countyFilter = county.Display(filter.County)
		}
	}

	return uc.reportRepo.List(ctx, entity.ReportFilter{
		Statuses: statuses,
		County:   countyFilter,
		Category: filter.Category,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

func (uc *ReportUseCase) ToggleUpvote(ctx context.Context, session entity.Session, reportID string) (*entity.UpvoteResult, error) {
	return uc.upvoteRepo.Toggle(ctx, session.UserID, reportID)
}

func (uc *ReportUseCase) MyUpvotes(ctx context.Context, session entity.Session) (*entity.UserUpvotes, error) {
	return uc.upvoteRepo.Get(ctx, session.UserID)
}

// RecountUpvotes rebuilds a report's counter from the per-user flags.
func (uc *ReportUseCase) RecountUpvotes(ctx context.Context, session entity.Session, reportID string) (int, error) {
	if !session.IsModerator() {
		return 0, errors.Forbidden("Moderator access required", nil)
	}
	if _, err := uc.reportRepo.GetByID(ctx, reportID); err != nil {
		return 0, err
	}

	count, err := uc.upvoteRepo.CountFor(ctx, reportID)
	if err != nil {
		return 0, err
	}
	if err := uc.reportRepo.SetUpvotes(ctx, reportID, count); err != nil {
		return 0, err
	}

	return count, nil
}

func (uc *ReportUseCase) publish(ctx context.Context, eventType string, report *entity.Report, extra map[string]interface{}) {
	publishReportEvent(ctx, uc.publisher, eventType, report, extra)
}

func publishReportEvent(ctx context.Context, publisher service.EventPublisher, eventType string, report *entity.Report, extra map[string]interface{}) {
	data := map[string]interface{}{
		"reportId":     report.ID,
		"submissionId": report.SubmissionID,
		"userId":       report.UserID,
		"status":       string(report.Status),
		"county":       report.County,
		"category":     report.Category,
	}
	for k, v := range extra {
		data[k] = v
	}

	pubCtx, cancel := publishContext(ctx)
	defer cancel()
	if err := publisher.Publish(pubCtx, eventType, report.ID, data); err != nil {
		logger.Warn("Failed to publish %s for report %s: %v", eventType, report.ID, err)
	}
}

// publishContext detaches event publishing from the request and bounds it, so a slow broker
// cannot hold a request or a moderation guard.
func publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}

func pendingExists() error {
	return errors.Rejected("PENDING_REPORT_EXISTS",
		"You already have a report awaiting review. Please wait until it has been reviewed.")
}
