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

var _ repository.PaymentTransactionRepository = (*paymentTransactionRepo)(nil)

type paymentTransactionRepo struct{ pool *pgxpool.Pool }

func NewPaymentTransactionRepo(pool *pgxpool.Pool) *paymentTransactionRepo {
	return &paymentTransactionRepo{pool: pool}
}

const paymentTxnColumns = `id, user_id, order_id, gateway, reference, amount_minor, charged_minor, currency, status, failure_code, authorization_code, created_at, updated_at, paid_at, meta`

func (r *paymentTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error {
	const q = `
INSERT INTO payment_transactions (
  id, user_id, order_id, gateway, reference, amount_minor, charged_minor, currency, status, failure_code, authorization_code, created_at, updated_at, paid_at, meta
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) ON CONFLICT (id) DO UPDATE SET
  charged_minor=$7, status=$9, failure_code=$10, authorization_code=$11, updated_at=$13, paid_at=$14, meta=$15;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.UserID, t.OrderID, t.Gateway, t.Reference, t.AmountMinor, t.ChargedMinor, t.Currency, t.Status, t.FailureCode, t.AuthorizationCode, t.CreatedAt, t.UpdatedAt, t.PaidAt, t.Meta)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentTxnColumns + ` FROM payment_transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPaymentTxn(row)
}

func (r *paymentTransactionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentTxnColumns + ` FROM payment_transactions WHERE reference=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	return scanPaymentTxn(row)
}

func (r *paymentTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, age time.Duration, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentTxnColumns + ` FROM payment_transactions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, time.Now().Add(-age), limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentTransaction
	for rows.Next() {
		t, err := scanPaymentTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *paymentTransactionRepo) FindLastAuthorizedByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PaymentTransaction, error) {
	const q = `SELECT ` + paymentTxnColumns + ` FROM payment_transactions
WHERE user_id=$1 AND status='success' AND authorization_code <> ''
ORDER BY paid_at DESC NULLS LAST LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPaymentTxn(row)
}

// UpdateStatusIfPending is the race arbiter between the webhook and callback
// reconcilers: the WHERE clause only matches a still-pending row, so exactly
// one concurrent caller observes rows-affected == 1.
func (r *paymentTransactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, chargedMinor int64, failureCode string, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payment_transactions
SET status=$2, charged_minor=CASE WHEN $3 > 0 THEN $3 ELSE charged_minor END,
    failure_code=$4, paid_at=COALESCE($5, paid_at), updated_at=NOW()
WHERE id=$1 AND status='pending';`

	tag, err := execSQL(ctx, r.pool, tx, q, id, status, chargedMinor, failureCode, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentTransactionRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(charged_minor),0) FROM payment_transactions WHERE status='success' AND paid_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func scanPaymentTxn(row pgx.Row) (*model.PaymentTransaction, error) {
	t := &model.PaymentTransaction{}
	if err := row.Scan(&t.ID, &t.UserID, &t.OrderID, &t.Gateway, &t.Reference, &t.AmountMinor, &t.ChargedMinor, &t.Currency, &t.Status, &t.FailureCode, &t.AuthorizationCode, &t.CreatedAt, &t.UpdatedAt, &t.PaidAt, &t.Meta); err != nil {
		return nil, scanErr(err)
	}
	return t, nil
}
