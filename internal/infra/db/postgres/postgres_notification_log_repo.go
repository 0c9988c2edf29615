package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct{ pool *pgxpool.Pool }

func NewNotificationLogRepo(pool *pgxpool.Pool) *notificationLogRepo {
	return &notificationLogRepo{pool: pool}
}

func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, l *model.NotificationLog) error {
	const q = `
INSERT INTO notification_logs (id, user_id, kind, body, delivered, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.UserID, l.Kind, l.Body, l.Delivered, l.Error, l.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, userID string, kind model.NotificationKind, since time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM notification_logs WHERE user_id=$1 AND kind=$2 AND created_at >= $3);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, kind, since)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
