package repository

import (
	"context"

	"civicfix/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdateRole(ctx context.Context, id string, role entity.Role) error
}
