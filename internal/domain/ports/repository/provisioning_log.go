package repository

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// ProvisioningLogRepository is the append-only audit port for provisioning
// attempts. There is deliberately no update or delete.
type ProvisioningLogRepository interface {
	Append(ctx context.Context, tx Tx, l *model.ProvisioningLog) error
	ListByOrder(ctx context.Context, tx Tx, orderID string) ([]*model.ProvisioningLog, error)
	// LastAttemptNumber returns the highest attempt recorded for the order and
	// action, zero when none.
	LastAttemptNumber(ctx context.Context, tx Tx, orderID string, action model.ProvisioningAction) (int, error)
}
