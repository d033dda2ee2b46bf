package repository

import (
	"context"

	"civicfix/internal/domain/entity"
)

type UpvoteRepository interface {
	Get(ctx context.Context, userID string) (*entity.UserUpvotes, error)
	// Toggle flips the user's flag for the report and adjusts the report counter in one
	// transaction. Only reports in a public status can be upvoted.
	Toggle(ctx context.Context, userID, reportID string) (*entity.UpvoteResult, error)
	// CountFor counts users whose flag for the report is set.
	CountFor(ctx context.Context, reportID string) (int, error)
}
