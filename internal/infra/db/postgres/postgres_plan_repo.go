package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, name, package_code, duration_days, connections, price_minor, currency, woo_product_id, active, created_at`

func (r *planRepo) Save(ctx context.Context, plan *model.Plan) error {
	const q = `
INSERT INTO plans (
  id, name, package_code, duration_days, connections, price_minor, currency, woo_product_id, active, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  name=$2, package_code=$3, duration_days=$4, connections=$5, price_minor=$6, currency=$7, woo_product_id=$8, active=$9;`

	_, err := execSQL(ctx, r.pool, nil, q, plan.ID, plan.Name, plan.PackageCode, plan.DurationDays, plan.Connections, plan.PriceMinor, plan.Currency, plan.WooProductID, plan.Active, plan.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) FindByWooProductID(ctx context.Context, wooProductID int64) (*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE woo_product_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, nil, q, wooProductID)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE active ORDER BY price_minor ASC;`
	return r.list(ctx, q)
}

func (r *planRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans ORDER BY price_minor ASC;`
	return r.list(ctx, q)
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM plans WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, nil, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, nil, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.PackageCode, &p.DurationDays, &p.Connections, &p.PriceMinor, &p.Currency, &p.WooProductID, &p.Active, &p.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}
