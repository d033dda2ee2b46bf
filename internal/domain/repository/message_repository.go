package repository

import (
	"context"
	"time"

	"civicfix/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*entity.Message, error)
	SetRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every message whose expiry is before now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
