package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/pkg/errors"
)

const userUpvotesCollection = "userUpvotes"

type firestoreUpvoteRepository struct {
	client *firestore.Client
}

func NewFirestoreUpvoteRepository(client *firestore.Client) repository.UpvoteRepository {
	return &firestoreUpvoteRepository{
		client: client,
	}
}

func (r *firestoreUpvoteRepository) Get(ctx context.Context, userID string) (*entity.UserUpvotes, error) {
	doc, err := r.client.Collection(userUpvotesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &entity.UserUpvotes{UserID: userID, Flags: map[string]int{}}, nil
		}
		return nil, errors.Infrastructure("Failed to get upvotes", err)
	}

	return &entity.UserUpvotes{UserID: userID, Flags: decodeFlags(doc.Data())}, nil
}

// Toggle updates the per-user flag and the report counter in a single transaction.
func (r *firestoreUpvoteRepository) Toggle(ctx context.Context, userID, reportID string) (*entity.UpvoteResult, error) {
	reportRef := r.client.Collection(reportsCollection).Doc(reportID)
	userRef := r.client.Collection(userUpvotesCollection).Doc(userID)
	var result *entity.UpvoteResult

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		report, err := getReportInTx(tx, reportRef)
		if err != nil {
			return err
		}
		if !report.Status.Public() {
			return errors.Rejected("INVALID_TRANSITION", "Only approved or completed reports can be upvoted")
		}

		flags := map[string]int{}
		snap, err := tx.Get(userRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			flags = decodeFlags(snap.Data())
		}

		next := 1
		delta := 1
		if flags[reportID] > 0 {
			next = 0
			delta = -1
		}
		upvotes := report.Upvotes + delta
		if upvotes < 0 {
			upvotes = 0
		}

		if err := tx.Set(userRef, map[string]interface{}{reportID: next}, firestore.MergeAll); err != nil {
			return err
		}
		if err := tx.Update(reportRef, []firestore.Update{
			{Path: "upvotes", Value: upvotes},
			{Path: "updatedAt", Value: time.Now()},
		}); err != nil {
			return err
		}

		result = &entity.UpvoteResult{ReportID: reportID, Upvoted: next == 1, Upvotes: upvotes}
		return nil
	})
	if err != nil {
		return nil, wrapTxError("Failed to toggle upvote", err)
	}

	return result, nil
}

func (r *firestoreUpvoteRepository) CountFor(ctx context.Context, reportID string) (int, error) {
	docs, err := r.client.Collection(userUpvotesCollection).
		WherePath(firestore.FieldPath{reportID}, "==", 1).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Infrastructure("Failed to count upvotes", err)
	}
	return len(docs), nil
}

// decodeFlags converts the stored map; Firestore returns integers as int64.
func decodeFlags(data map[string]interface{}) map[string]int {
	flags := make(map[string]int, len(data))
	for k, v := range data {
		switch n := v.(type) {
		case int64:
			flags[k] = int(n)
		case int:
			flags[k] = n
		case float64:
			flags[k] = int(n)
		case bool:
			if n {
				flags[k] = 1
			} else {
				flags[k] = 0
			}
		}
	}
	return flags
}
