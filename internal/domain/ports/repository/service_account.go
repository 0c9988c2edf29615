package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// ServiceAccountRepository is the port for upstream IPTV credentials.
type ServiceAccountRepository interface {
	Save(ctx context.Context, tx Tx, sa *model.ServiceAccount) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ServiceAccount, error)
	FindBySubscriptionID(ctx context.Context, tx Tx, subscriptionID string) (*model.ServiceAccount, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.ServiceAccount, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.ServiceAccountStatus) error
	ExtendExpiry(ctx context.Context, tx Tx, id string, expiresAt time.Time) error
}
