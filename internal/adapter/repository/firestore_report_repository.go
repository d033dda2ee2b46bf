package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/pkg/errors"
)

const (
	reportsCollection      = "reports"
	pendingLocksCollection = "pendingLocks"
)

// pendingLock marks that a user holds a pending report. Its existence is the
// one-pending-report-per-user constraint.
type pendingLock struct {
	ReportID  string    `firestore:"reportId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type firestoreReportRepository struct {
	client *firestore.Client
}

func NewFirestoreReportRepository(client *firestore.Client) repository.ReportRepository {
	return &firestoreReportRepository{
		client: client,
	}
}

func (r *firestoreReportRepository) CreatePending(ctx context.Context, report *entity.Report) error {
	ref := r.client.Collection(reportsCollection).NewDoc()
	lockRef := r.client.Collection(pendingLocksCollection).Doc(report.UserID)

	now := time.Now()
	report.ID = ref.ID
	report.Status = entity.ReportStatusPending
	report.AssignedTo = ""
	report.Upvotes = 0
	report.CreatedAt = now
	report.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(lockRef)
		if err == nil && snap.Exists() {
			return errors.Rejected("PENDING_REPORT_EXISTS", "You already have a report awaiting review")
		}
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(lockRef, pendingLock{ReportID: ref.ID, CreatedAt: now}); err != nil {
			return err
		}
		return tx.Create(ref, report)
	})
	if err != nil {
		report.ID = ""
		if errors.Is(err, "PENDING_REPORT_EXISTS") {
			return err
		}
		return errors.Infrastructure("Failed to create report", err)
	}

	return nil
}

func (r *firestoreReportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	doc, err := r.client.Collection(reportsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Report", err)
		}
		return nil, errors.Infrastructure("Failed to get report", err)
	}

	return decodeReport(doc)
}

func (r *firestoreReportRepository) List(ctx context.Context, filter entity.ReportFilter) ([]*entity.Report, int64, error) {
	query := r.client.Collection(reportsCollection).Query

	if filter.UserID != "" {
		query = query.Where("userId", "==", filter.UserID)
	}
	switch len(filter.Statuses) {
	case 0:
	case 1:
		query = query.Where("status", "==", string(filter.Statuses[0]))
	default:
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where("status", "in", statuses)
	}
	if filter.County != "" {
		query = query.Where("county", "==", filter.County)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}

	reports, err := r.getAll(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	total := int64(len(reports))
	if filter.Offset > 0 {
		if filter.Offset >= len(reports) {
			return []*entity.Report{}, total, nil
		}
		reports = reports[filter.Offset:]
	}
	if filter.Limit > 0 && len(reports) > filter.Limit {
		reports = reports[:filter.Limit]
	}

	return reports, total, nil
}

func (r *firestoreReportRepository) ListByStatus(ctx context.Context, reportStatus entity.ReportStatus) ([]*entity.Report, error) {
	return r.getAll(ctx, r.client.Collection(reportsCollection).Where("status", "==", string(reportStatus)))
}

func (r *firestoreReportRepository) ListPendingByUser(ctx context.Context, userID string) ([]*entity.Report, error) {
	query := r.client.Collection(reportsCollection).
		Where("userId", "==", userID).
		Where("status", "==", string(entity.ReportStatusPending))
	return r.getAll(ctx, query)
}

func (r *firestoreReportRepository) HasPendingLock(ctx context.Context, userID string) (bool, error) {
	_, err := r.client.Collection(pendingLocksCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, errors.Infrastructure("Failed to check pending reports", err)
	}
	return true, nil
}

func (r *firestoreReportRepository) SubmissionExists(ctx context.Context, submissionID string) (bool, error) {
	docs, err := r.client.Collection(reportsCollection).
		Where("submissionId", "==", submissionID).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return false, errors.Infrastructure("Failed to check submission id", err)
	}
	return len(docs) > 0, nil
}

func (r *firestoreReportRepository) Transition(ctx context.Context, id string, from entity.ReportStatus, fn repository.TransitionFunc) (*entity.Report, error) {
	ref := r.client.Collection(reportsCollection).Doc(id)
	var updated *entity.Report

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		report, err := getReportInTx(tx, ref)
		if err != nil {
			return err
		}
		if report.Status != from {
			return invalidTransition(report.Status, from)
		}

		if err := fn(report); err != nil {
			return err
		}
		report.UpdatedAt = time.Now()

		if from == entity.ReportStatusPending && report.Status != entity.ReportStatusPending {
			if err := tx.Delete(r.client.Collection(pendingLocksCollection).Doc(report.UserID)); err != nil {
				return err
			}
		}
		if err := tx.Set(ref, report); err != nil {
			return err
		}

		updated = report
		return nil
	})
	if err != nil {
		return nil, wrapTxError("Failed to update report", err)
	}

	return updated, nil
}

func (r *firestoreReportRepository) DeletePending(ctx context.Context, id string) (*entity.Report, error) {
	ref := r.client.Collection(reportsCollection).Doc(id)
	var deleted *entity.Report

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		report, err := getReportInTx(tx, ref)
		if err != nil {
			return err
		}
		if report.Status != entity.ReportStatusPending {
			return invalidTransition(report.Status, entity.ReportStatusPending)
		}

		if err := tx.Delete(r.client.Collection(pendingLocksCollection).Doc(report.UserID)); err != nil {
			return err
		}
		if err := tx.Delete(ref); err != nil {
			return err
		}

		deleted = report
		return nil
	})
	if err != nil {
		return nil, wrapTxError("Failed to delete report", err)
	}

	return deleted, nil
}

func (r *firestoreReportRepository) SetUpvotes(ctx context.Context, id string, upvotes int) error {
	_, err := r.client.Collection(reportsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "upvotes", Value: upvotes},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Report", err)
		}
		return errors.Infrastructure("Failed to update upvotes", err)
	}
	return nil
}

func (r *firestoreReportRepository) getAll(ctx context.Context, query firestore.Query) ([]*entity.Report, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Infrastructure("Failed to query reports", err)
	}

	reports := make([]*entity.Report, 0, len(docs))
	for _, doc := range docs {
		report, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func getReportInTx(tx *firestore.Transaction, ref *firestore.DocumentRef) (*entity.Report, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Report", err)
		}
		return nil, err
	}
	return decodeReport(snap)
}

func decodeReport(doc *firestore.DocumentSnapshot) (*entity.Report, error) {
	var report entity.Report
	if err := doc.DataTo(&report); err != nil {
		return nil, errors.Internal("Failed to parse report data", err)
	}
	report.ID = doc.Ref.ID
	return &report, nil
}

func invalidTransition(actual, expected entity.ReportStatus) error {
	return errors.Rejected("INVALID_TRANSITION",
		fmt.Sprintf("Report is %s; this action requires a %s report", actual, expected)).
		WithDetail("status", string(actual))
}

// wrapTxError keeps application errors raised inside a transaction and wraps the rest.
func wrapTxError(message string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.Infrastructure(message, err)
}
