// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// Notify delivers a message to the user and logs the outcome.
	Notify(ctx context.Context, userID string, kind model.NotificationKind, subject, body string) error
	// SendExpiryReminders notifies users whose subscriptions expire within
	// each configured threshold, at most once per user/kind/day.
	SendExpiryReminders(ctx context.Context, thresholdDays []int) (int, error)
}

type notificationUC struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	notifLog repository.NotificationLogRepository
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	notifLog repository.NotificationLogRepository,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *notificationUC {
	return &notificationUC{users: users, subs: subs, plans: plans, notifLog: notifLog, notifier: notifier, log: logger}
}

func (u *notificationUC) Notify(ctx context.Context, userID string, kind model.NotificationKind, subject, body string) error {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	sendErr := u.notifier.Send(ctx, user, kind, subject, body)

	entry := &model.NotificationLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Body:      body,
		Delivered: sendErr == nil,
		CreatedAt: time.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
		u.log.Warn().Err(sendErr).Str("user_id", userID).Str("kind", string(kind)).Msg("notification delivery failed")
	}
	if err := u.notifLog.Save(ctx, nil, entry); err != nil {
		u.log.Error().Err(err).Msg("failed to log notification")
	}
	return sendErr
}

func (u *notificationUC) SendExpiryReminders(ctx context.Context, thresholdDays []int) (int, error) {
	sent := 0
	for _, days := range thresholdDays {
		subs, err := u.subs.FindExpiring(ctx, nil, time.Duration(days)*24*time.Hour, 0)
		if err != nil {
			return sent, err
		}
		for _, sub := range subs {
			// One reminder per user per day, regardless of threshold overlap.
			since := time.Now().Add(-24 * time.Hour)
			exists, err := u.notifLog.Exists(ctx, nil, sub.UserID, model.NotificationKindExpiryReminder, since)
			if err != nil || exists {
				continue
			}

			plan, err := u.plans.FindByID(ctx, sub.PlanID)
			if err != nil {
				continue
			}
			body := fmt.Sprintf("Your %s subscription expires on %s. Renew now to keep watching.",
				plan.Name, sub.ExpiresAt.Format("2 Jan 2006"))
			if err := u.Notify(ctx, sub.UserID, model.NotificationKindExpiryReminder, "Subscription expiring soon", body); err == nil {
				sent++
			}
		}
	}
	return sent, nil
}
