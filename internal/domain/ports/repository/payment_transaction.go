package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// PaymentTransactionRepository is the port for gateway payment attempts.
type PaymentTransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.PaymentTransaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentTransaction, error)
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.PaymentTransaction, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, age time.Duration, limit int) ([]*model.PaymentTransaction, error)

	// FindLastAuthorizedByUser returns the user's most recent successful
	// transaction that carries a reusable authorization code.
	FindLastAuthorizedByUser(ctx context.Context, tx Tx, userID string) (*model.PaymentTransaction, error)

	// UpdateStatusIfPending transitions the row only when it is still pending
	// and reports whether this caller won the transition. Concurrent
	// reconcilers (webhook vs. callback) race on this; exactly one wins.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.TransactionStatus, chargedMinor int64, failureCode string, paidAt *time.Time) (bool, error)

	// SumByPeriod returns settled revenue in minor units; period is one of
	// "day", "week", "month".
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
