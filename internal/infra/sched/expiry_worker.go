// File: internal/infra/sched/expiry_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/usecase"
)

// ExpiryWorker marks overdue subscriptions expired and sends expiry reminders.
type ExpiryWorker struct {
	interval     time.Duration
	reminderDays []int
	subUC        usecase.SubscriptionUseCase
	notifyUC     usecase.NotificationUseCase
	log          *zerolog.Logger
}

func NewExpiryWorker(
	interval time.Duration,
	reminderDays []int,
	subUC usecase.SubscriptionUseCase,
	notifyUC usecase.NotificationUseCase,
	logger *zerolog.Logger,
) *ExpiryWorker {
	wlog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:     interval,
		reminderDays: reminderDays,
		subUC:        subUC,
		notifyUC:     notifyUC,
		log:          &wlog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subUC.ExpireOverdue(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry pass failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("subscriptions expired")
			}

			sent, err := w.notifyUC.SendExpiryReminders(ctx, w.reminderDays)
			if err != nil {
				w.log.Error().Err(err).Msg("reminder pass failed")
			}
			if sent > 0 {
				w.log.Info().Int("count", sent).Msg("expiry reminders sent")
			}
		}
	}
}
