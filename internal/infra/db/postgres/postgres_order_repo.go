package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, user_id, subscription_id, woo_order_id, status, amount_minor, currency, paid_at, provisioned_at, created_at, updated_at`

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, user_id, subscription_id, woo_order_id, status, amount_minor, currency, paid_at, provisioned_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  status=$5, paid_at=$8, provisioned_at=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.UserID, o.SubscriptionID, o.WooOrderID, o.Status, o.AmountMinor, o.Currency, o.PaidAt, o.ProvisionedAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindByWooOrderID(ctx context.Context, tx repository.Tx, wooOrderID int64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE woo_order_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, wooOrderID)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *orderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, provisionedAt *time.Time) (bool, error) {
	const q = `
UPDATE orders SET status=$2, provisioned_at=COALESCE($3, provisioned_at), updated_at=NOW()
WHERE id=$1 AND status='pending_provisioning';`

	tag, err := execSQL(ctx, r.pool, tx, q, id, status, provisionedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.SubscriptionID, &o.WooOrderID, &o.Status, &o.AmountMinor, &o.Currency, &o.PaidAt, &o.ProvisionedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return o, nil
}
