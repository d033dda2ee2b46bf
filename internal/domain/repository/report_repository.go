package repository

import (
	"context"

	"civicfix/internal/domain/entity"
)

// TransitionFunc mutates a report read inside a transaction. Returning an error aborts the write.
type TransitionFunc func(report *entity.Report) error

type ReportRepository interface {
	// CreatePending stores a new pending report and the owner's pending lock atomically.
	// It fails with a PENDING_REPORT_EXISTS rejection when the lock is already held.
	CreatePending(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, filter entity.ReportFilter) ([]*entity.Report, int64, error)
	ListByStatus(ctx context.Context, status entity.ReportStatus) ([]*entity.Report, error)
	ListPendingByUser(ctx context.Context, userID string) ([]*entity.Report, error)
	HasPendingLock(ctx context.Context, userID string) (bool, error)
	// SubmissionExists reports whether any stored report carries the submission id.
	SubmissionExists(ctx context.Context, submissionID string) (bool, error)

	// Transition reads the report, checks it is in from, applies fn and writes it back
	// in one transaction. The owner's pending lock is released when leaving pending.
	Transition(ctx context.Context, id string, from entity.ReportStatus, fn TransitionFunc) (*entity.Report, error)
	// DeletePending removes a pending report and releases its lock in one transaction.
	DeletePending(ctx context.Context, id string) (*entity.Report, error)
	SetUpvotes(ctx context.Context, id string, upvotes int) error
}
