package repository

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// PlanRepository is the port for plan persistence.
type PlanRepository interface {
	Save(ctx context.Context, plan *model.Plan) error
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	FindByWooProductID(ctx context.Context, wooProductID int64) (*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
	ListAll(ctx context.Context) ([]*model.Plan, error)
	Delete(ctx context.Context, id string) error
}
