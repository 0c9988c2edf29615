package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// PlanChangeRepository is the port for upgrade/downgrade requests.
type PlanChangeRepository interface {
	Save(ctx context.Context, tx Tx, pc *model.PlanChange) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PlanChange, error)
	FindByPaymentReference(ctx context.Context, tx Tx, reference string) (*model.PlanChange, error)
	FindPendingByUser(ctx context.Context, tx Tx, userID string) (*model.PlanChange, error)
	ListDueScheduled(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.PlanChange, error)

	// CompleteIfPending finalizes the change only when it is still pending;
	// reports whether this caller performed the transition.
	CompleteIfPending(ctx context.Context, tx Tx, id string, status model.PlanChangeStatus, failureReason string, executedAt *time.Time) (bool, error)
}
