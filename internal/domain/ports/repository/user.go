package repository

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// UserRepository is the port for user persistence.
type UserRepository interface {
	Save(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}
