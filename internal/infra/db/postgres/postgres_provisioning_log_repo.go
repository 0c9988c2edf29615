package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.ProvisioningLogRepository = (*provisioningLogRepo)(nil)

type provisioningLogRepo struct{ pool *pgxpool.Pool }

func NewProvisioningLogRepo(pool *pgxpool.Pool) *provisioningLogRepo {
	return &provisioningLogRepo{pool: pool}
}

// Append is insert-only; the table carries no update path.
func (r *provisioningLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.ProvisioningLog) error {
	const q = `
INSERT INTO provisioning_logs (
  id, order_id, subscription_id, action, status, attempt_number, error_code, error_message, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.OrderID, l.SubscriptionID, l.Action, l.Status, l.AttemptNumber, l.ErrorCode, l.ErrorMessage, l.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *provisioningLogRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.ProvisioningLog, error) {
	const q = `SELECT id, order_id, subscription_id, action, status, attempt_number, error_code, error_message, created_at FROM provisioning_logs WHERE order_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, orderID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.ProvisioningLog
	for rows.Next() {
		l := &model.ProvisioningLog{}
		if err := rows.Scan(&l.ID, &l.OrderID, &l.SubscriptionID, &l.Action, &l.Status, &l.AttemptNumber, &l.ErrorCode, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *provisioningLogRepo) LastAttemptNumber(ctx context.Context, tx repository.Tx, orderID string, action model.ProvisioningAction) (int, error) {
	const q = `SELECT COALESCE(MAX(attempt_number),0) FROM provisioning_logs WHERE order_id=$1 AND action=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID, action)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
