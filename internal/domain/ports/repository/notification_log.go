package repository

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// NotificationLogRepository records sent notifications so workers can dedupe.
type NotificationLogRepository interface {
	Save(ctx context.Context, tx Tx, l *model.NotificationLog) error
	// Exists reports whether a notification of this kind was already logged
	// for the user since the given time.
	Exists(ctx context.Context, tx Tx, userID string, kind model.NotificationKind, since time.Time) (bool, error)
}
