package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/internal/domain/service"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
)

const (
	actionApprove  = "approve"
	actionDecline  = "decline"
	actionComplete = "complete"
	actionAssign   = "assign"
)

type ModerationUseCase struct {
	reportRepo     repository.ReportRepository
	messages       *MessageUseCase
	blobStore      service.BlobStore
	guard          service.TransitionGuard
	publisher      service.EventPublisher
	metrics        *metrics.Metrics
	guardTTL       time.Duration
	retainDeclined bool
	now            func() time.Time
}

type ModerationConfig struct {
	GuardTTL       time.Duration
	RetainDeclined bool
}

func NewModerationUseCase(
	reportRepo repository.ReportRepository,
	messages *MessageUseCase,
	blobStore service.BlobStore,
	guard service.TransitionGuard,
	publisher service.EventPublisher,
	m *metrics.Metrics,
	cfg ModerationConfig,
) *ModerationUseCase {
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = 30 * time.Second
	}
	if publisher == nil {
		publisher = service.NewNoopPublisher()
	}
	return &ModerationUseCase{
		reportRepo:     reportRepo,
		messages:       messages,
		blobStore:      blobStore,
		guard:          guard,
		publisher:      publisher,
		metrics:        m,
		guardTTL:       cfg.GuardTTL,
		retainDeclined: cfg.RetainDeclined,
		now:            time.Now,
	}
}

// TransitionResult is returned by every moderation action. The status change is committed
// even when MessageDelivered is false.
type TransitionResult struct {
	Report           *entity.Report `json:"report"`
	Deleted          bool           `json:"deleted"`
	MessageDelivered bool           `json:"messageDelivered"`
}

func (uc *ModerationUseCase) Approve(ctx context.Context, session entity.Session, reportID string) (*TransitionResult, error) {
	return uc.run(ctx, session, actionApprove, reportID, func(ctx context.Context) (*TransitionResult, error) {
		report, err := uc.reportRepo.Transition(ctx, reportID, entity.ReportStatusPending, func(r *entity.Report) error {
			r.Status = entity.ReportStatusApproved
			if r.AssignedTo == "" {
				r.AssignedTo = session.UserID
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		delivered := uc.notify(ctx, NotifyInput{
			UserID:   report.UserID,
			Type:     entity.MessageTypeApproval,
			Title:    "Report approved",
			Body:     fmt.Sprintf("Your %s report at %s has been approved and is now public.", report.Category, report.AddressLine1),
			ReportID: report.ID,
		})
		uc.publish(ctx, service.EventReportApproved, report, map[string]interface{}{"moderatorId": session.UserID})

		return &TransitionResult{Report: report, MessageDelivered: delivered}, nil
	})
}

// Decline ends a pending report. The record is kept as declined unless retention is off,
// in which case it and its image are removed.
func (uc *ModerationUseCase) Decline(ctx context.Context, session entity.Session, reportID, reason string) (*TransitionResult, error) {
	reason = strings.TrimSpace(reason)

	return uc.run(ctx, session, actionDecline, reportID, func(ctx context.Context) (*TransitionResult, error) {
		var (
			report  *entity.Report
			deleted bool
			err     error
		)

		if uc.retainDeclined {
			report, err = uc.reportRepo.Transition(ctx, reportID, entity.ReportStatusPending, func(r *entity.Report) error {
				r.Status = entity.ReportStatusDeclined
				r.Decline = &entity.Decline{
					Reason:     reason,
					DeclinedBy: session.UserID,
					At:         uc.now(),
				}
				return nil
			})
		} else {
			report, err = uc.reportRepo.DeletePending(ctx, reportID)
			deleted = err == nil
		}
		if err != nil {
			return nil, err
		}

		if deleted && report.ImageURL != "" {
			if err := uc.blobStore.DeleteImage(ctx, report.ImageURL); err != nil {
				logger.Error("Failed to delete image for declined report %s: %v", report.ID, err)
			}
		}

		body := fmt.Sprintf("Your %s report at %s was declined.", report.Category, report.AddressLine1)
		if reason != "" {
			body += " Reason: " + reason
		}
		delivered := uc.notify(ctx, NotifyInput{
			UserID:   report.UserID,
			Type:     entity.MessageTypeDecline,
			Title:    "Report declined",
			Body:     body,
			ReportID: report.ID,
		})

		uc.publish(ctx, service.EventReportDeclined, report, map[string]interface{}{
			"moderatorId": session.UserID,
			"reason":      reason,
			"deleted":     deleted,
		})

		return &TransitionResult{Report: report, Deleted: deleted, MessageDelivered: delivered}, nil
	})
}

// Complete closes an approved report. Only its assignee may complete it.
func (uc *ModerationUseCase) Complete(ctx context.Context, session entity.Session, reportID string) (*TransitionResult, error) {
	return uc.run(ctx, session, actionComplete, reportID, func(ctx context.Context) (*TransitionResult, error) {
		report, err := uc.reportRepo.Transition(ctx, reportID, entity.ReportStatusApproved, func(r *entity.Report) error {
			if r.AssignedTo != session.UserID {
				return errors.Forbidden("Only the assigned moderator can complete this report", nil)
			}
			r.Status = entity.ReportStatusCompleted
			return nil
		})
		if err != nil {
			return nil, err
		}

		delivered := uc.notify(ctx, NotifyInput{
			UserID:   report.UserID,
			Type:     entity.MessageTypeGeneral,
			Title:    "Issue resolved",
			Body:     fmt.Sprintf("The %s you reported at %s has been marked as resolved.", strings.ToLower(report.Category), report.AddressLine1),
			ReportID: report.ID,
		})
		uc.publish(ctx, service.EventReportCompleted, report, map[string]interface{}{"moderatorId": session.UserID})

		return &TransitionResult{Report: report, MessageDelivered: delivered}, nil
	})
}

// Assign hands an approved report to another moderator. Admins only.
func (uc *ModerationUseCase) Assign(ctx context.Context, session entity.Session, reportID, assignee string) (*TransitionResult, error) {
	if session.Role != entity.RoleAdmin {
		return nil, errors.Forbidden("Admin access required", nil)
	}
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		assignee = session.UserID
	}

	return uc.run(ctx, session, actionAssign, reportID, func(ctx context.Context) (*TransitionResult, error) {
		report, err := uc.reportRepo.Transition(ctx, reportID, entity.ReportStatusApproved, func(r *entity.Report) error {
			r.AssignedTo = assignee
			return nil
		})
		if err != nil {
			return nil, err
		}

		uc.publish(ctx, service.EventReportAssigned, report, map[string]interface{}{
			"moderatorId": session.UserID,
			"assignee":    assignee,
		})
		return &TransitionResult{Report: report}, nil
	})
}

// ListForTriage lists reports in one status, or every report when status is empty.
func (uc *ModerationUseCase) ListForTriage(ctx context.Context, session entity.Session, status string, limit, offset int) ([]*entity.Report, int64, error) {
	if !session.IsModerator() {
		return nil, 0, errors.Forbidden("Moderator access required", nil)
	}

	filter := entity.ReportFilter{Limit: limit, Offset: offset}
	if status != "" {
		s := entity.ReportStatus(strings.ToLower(status))
		switch s {
		case entity.ReportStatusPending, entity.ReportStatusApproved, entity.ReportStatusCompleted, entity.ReportStatusDeclined:
			filter.Statuses = []entity.ReportStatus{s}
		default:
			return nil, 0, errors.Validation("status", "Unknown report status")
		}
	}

	return uc.reportRepo.List(ctx, filter)
}

// run checks the caller's role and holds the in-progress guard for reportID while fn runs.
func (uc *ModerationUseCase) run(
	ctx context.Context,
	session entity.Session,
	action string,
	reportID string,
	fn func(ctx context.Context) (*TransitionResult, error),
) (*TransitionResult, error) {
	if !session.IsModerator() {
		return nil, errors.Forbidden("Moderator access required", nil)
	}
	if reportID == "" {
		return nil, errors.Validation("id", "Report id is required")
	}

	key := "report:" + reportID
	acquired, err := uc.guard.Acquire(ctx, key, uc.guardTTL)
	if err != nil {
		uc.metrics.ObserveTransition(action, err)
		return nil, errors.Infrastructure("Failed to acquire moderation guard", err)
	}
	if !acquired {
		err := errors.Rejected("TRANSITION_IN_PROGRESS", "Another moderation action is already running on this report")
		uc.metrics.ObserveTransition(action, err)
		return nil, err
	}
	defer uc.guard.Release(context.WithoutCancel(ctx), key)

	result, err := fn(ctx)
	uc.metrics.ObserveTransition(action, err)
	if err != nil {
		logger.Warn("Moderation %s on report %s failed: %v", action, reportID, err)
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"reportId":    reportID,
		"action":      action,
		"moderatorId": session.UserID,
		"status":      string(result.Report.Status),
	}).Info("Report transition applied")

	return result, nil
}

// notify creates the user's message. The status change is already committed, so the message
// no longer depends on the caller's request staying open. A failure is logged and never
// undoes the transition.
func (uc *ModerationUseCase) notify(ctx context.Context, input NotifyInput) bool {
	if _, err := uc.messages.Notify(context.WithoutCancel(ctx), input); err != nil {
		logger.LogTransitionError(input.ReportID, "notify_"+string(input.Type), err)
		return false
	}
	return true
}

func (uc *ModerationUseCase) publish(ctx context.Context, eventType string, report *entity.Report, extra map[string]interface{}) {
	publishReportEvent(ctx, uc.publisher, eventType, report, extra)
}
