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

var _ repository.ServiceAccountRepository = (*serviceAccountRepo)(nil)

type serviceAccountRepo struct{ pool *pgxpool.Pool }

func NewServiceAccountRepo(pool *pgxpool.Pool) *serviceAccountRepo {
	return &serviceAccountRepo{pool: pool}
}

const serviceAccountColumns = `id, subscription_id, user_id, upstream_id, username, password, m3u_url, server_url, package_code, connections, status, expires_at, created_at, updated_at`

// Save inserts only; credentials are write-once so there is no upsert arm for
// username/password.
func (r *serviceAccountRepo) Save(ctx context.Context, tx repository.Tx, sa *model.ServiceAccount) error {
	const q = `
INSERT INTO service_accounts (
  id, subscription_id, user_id, upstream_id, username, password, m3u_url, server_url, package_code, connections, status, expires_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  status=$11, expires_at=$12, updated_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q, sa.ID, sa.SubscriptionID, sa.UserID, sa.UpstreamID, sa.Username, sa.Password, sa.M3UURL, sa.ServerURL, sa.PackageCode, sa.Connections, sa.Status, sa.ExpiresAt, sa.CreatedAt, sa.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *serviceAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ServiceAccount, error) {
	const q = `SELECT ` + serviceAccountColumns + ` FROM service_accounts WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanServiceAccount(row)
}

func (r *serviceAccountRepo) FindBySubscriptionID(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.ServiceAccount, error) {
	const q = `SELECT ` + serviceAccountColumns + ` FROM service_accounts WHERE subscription_id=$1 ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	return scanServiceAccount(row)
}

func (r *serviceAccountRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.ServiceAccount, error) {
	const q = `SELECT ` + serviceAccountColumns + ` FROM service_accounts WHERE username=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, username)
	if err != nil {
		return nil, err
	}
	return scanServiceAccount(row)
}

func (r *serviceAccountRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ServiceAccountStatus) error {
	const q = `UPDATE service_accounts SET status=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *serviceAccountRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	const q = `UPDATE service_accounts SET expires_at=$2, status='active', updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, expiresAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanServiceAccount(row pgx.Row) (*model.ServiceAccount, error) {
	sa := &model.ServiceAccount{}
	if err := row.Scan(&sa.ID, &sa.SubscriptionID, &sa.UserID, &sa.UpstreamID, &sa.Username, &sa.Password, &sa.M3UURL, &sa.ServerURL, &sa.PackageCode, &sa.Connections, &sa.Status, &sa.ExpiresAt, &sa.CreatedAt, &sa.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return sa, nil
}
