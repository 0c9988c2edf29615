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

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, status, expires_at, auto_renew, service_account_id, suspension_reason, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, plan_id, status, expires_at, auto_renew, service_account_id, suspension_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  plan_id=$3, status=$4, expires_at=$5, auto_renew=$6, suspension_reason=$8, updated_at=$10;`

	_, err := execSQL(ctx, r.pool, tx, q, sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.ExpiresAt, sub.AutoRenew, sub.ServiceAccountID, sub.SuspensionReason, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 AND status IN ('pending','active') ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC;`
	return r.list(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, within time.Duration, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 500
	}
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE status='active' AND expires_at IS NOT NULL AND expires_at BETWEEN NOW() AND NOW() + $1::interval ORDER BY expires_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, within.String(), limit)
}

func (r *subscriptionRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 500
	}
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE status='active' AND expires_at IS NOT NULL AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, now, limit)
}

// SetServiceAccountID links credentials to the subscription; the WHERE clause
// keeps the link write-once.
func (r *subscriptionRepo) SetServiceAccountID(ctx context.Context, tx repository.Tx, subscriptionID, serviceAccountID string) error {
	const q = `UPDATE subscriptions SET service_account_id=$2, updated_at=NOW() WHERE id=$1 AND service_account_id IS NULL;`
	tag, err := execSQL(ctx, r.pool, tx, q, subscriptionID, serviceAccountID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *subscriptionRepo) CountActiveByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `
SELECT p.name, COUNT(s.id)
FROM subscriptions s JOIN plans p ON p.id = s.plan_id
WHERE s.status='active'
GROUP BY p.name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[name] = n
	}
	return out, nil
}

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.ExpiresAt, &s.AutoRenew, &s.ServiceAccountID, &s.SuspensionReason, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}
