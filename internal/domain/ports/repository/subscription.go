package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// FindExpiring lists active subscriptions whose expiry falls within the
	// window, for reminder and renewal workers.
	FindExpiring(ctx context.Context, tx Tx, within time.Duration, limit int) ([]*model.Subscription, error)
	// ListExpired lists active subscriptions already past expiry.
	ListExpired(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)

	// SetServiceAccountID links the provisioned account; write-once.
	SetServiceAccountID(ctx context.Context, tx Tx, subscriptionID, serviceAccountID string) error

	// --- Statistics read-only methods ---
	CountActiveByPlan(ctx context.Context, tx Tx) (map[string]int, error)
}
