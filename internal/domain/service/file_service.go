package service

import (
	"context"
)

// BlobStore keeps report images. Objects are keyed by owner and submission id, so one
// user can never address another user's image.
type BlobStore interface {
	UploadImage(ctx context.Context, ownerID, submissionID string, data []byte, contentType string) (string, error)
	DeleteImage(ctx context.Context, imageURL string) error
	Close() error
}
