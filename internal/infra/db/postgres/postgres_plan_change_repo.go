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

var _ repository.PlanChangeRepository = (*planChangeRepo)(nil)

type planChangeRepo struct{ pool *pgxpool.Pool }

func NewPlanChangeRepo(pool *pgxpool.Pool) *planChangeRepo {
	return &planChangeRepo{pool: pool}
}

const planChangeColumns = `id, user_id, subscription_id, from_plan_id, to_plan_id, change_type, status, payment_reference, gateway, proration_minor, credit_minor, scheduled_at, executed_at, failure_reason, created_at, updated_at`

func (r *planChangeRepo) Save(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error {
	const q = `
INSERT INTO plan_changes (
  id, user_id, subscription_id, from_plan_id, to_plan_id, change_type, status, payment_reference, gateway, proration_minor, credit_minor, scheduled_at, executed_at, failure_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  status=$7, payment_reference=$8, gateway=$9, proration_minor=$10, credit_minor=$11, scheduled_at=$12, executed_at=$13, failure_reason=$14, updated_at=$16;`

	_, err := execSQL(ctx, r.pool, tx, q, pc.ID, pc.UserID, pc.SubscriptionID, pc.FromPlanID, pc.ToPlanID, pc.Type, pc.Status, pc.PaymentReference, pc.Gateway, pc.ProrationMinor, pc.CreditMinor, pc.ScheduledAt, pc.ExecutedAt, pc.FailureReason, pc.CreatedAt, pc.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planChangeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PlanChange, error) {
	q := `SELECT ` + planChangeColumns + ` FROM plan_changes WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlanChange(row)
}

func (r *planChangeRepo) FindByPaymentReference(ctx context.Context, tx repository.Tx, reference string) (*model.PlanChange, error) {
	q := `SELECT ` + planChangeColumns + ` FROM plan_changes WHERE payment_reference=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	return scanPlanChange(row)
}

func (r *planChangeRepo) FindPendingByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PlanChange, error) {
	const q = `SELECT ` + planChangeColumns + ` FROM plan_changes WHERE user_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPlanChange(row)
}

func (r *planChangeRepo) ListDueScheduled(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.PlanChange, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + planChangeColumns + ` FROM plan_changes WHERE status='pending' AND scheduled_at IS NOT NULL AND scheduled_at <= $1 ORDER BY scheduled_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PlanChange
	for rows.Next() {
		pc, err := scanPlanChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}

func (r *planChangeRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string, status model.PlanChangeStatus, failureReason string, executedAt *time.Time) (bool, error) {
	const q = `
UPDATE plan_changes
SET status=$2, failure_reason=$3, executed_at=COALESCE($4, executed_at), updated_at=NOW()
WHERE id=$1 AND status='pending';`

	tag, err := execSQL(ctx, r.pool, tx, q, id, status, failureReason, executedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func scanPlanChange(row pgx.Row) (*model.PlanChange, error) {
	pc := &model.PlanChange{}
	if err := row.Scan(&pc.ID, &pc.UserID, &pc.SubscriptionID, &pc.FromPlanID, &pc.ToPlanID, &pc.Type, &pc.Status, &pc.PaymentReference, &pc.Gateway, &pc.ProrationMinor, &pc.CreditMinor, &pc.ScheduledAt, &pc.ExecutedAt, &pc.FailureReason, &pc.CreatedAt, &pc.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return pc, nil
}
