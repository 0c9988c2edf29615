package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// OrderRepository is the port for purchase orders.
type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindByWooOrderID(ctx context.Context, tx Tx, wooOrderID int64) (*model.Order, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Order, error)

	// UpdateStatusIfPending transitions the order out of pending_provisioning
	// exactly once; reports whether this caller performed it.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.OrderStatus, provisionedAt *time.Time) (bool, error)
}
