package adapter

import (
	"context"

	"iptv-subscription-platform/internal/domain/model"
)

// Notifier delivers user-facing messages (email today; the port keeps the
// channel out of use-case code).
type Notifier interface {
	Send(ctx context.Context, user *model.User, kind model.NotificationKind, subject, body string) error
}
