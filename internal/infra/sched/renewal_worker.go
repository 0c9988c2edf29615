// File: internal/infra/sched/renewal_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/usecase"
)

// RenewalWorker charges auto-renew subscriptions shortly before they expire.
type RenewalWorker struct {
	interval time.Duration
	window   time.Duration
	subUC    usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewRenewalWorker(interval, window time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *RenewalWorker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	wlog := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{interval: interval, window: window, subUC: subUC, log: &wlog}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting renewal worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subUC.RenewDue(ctx, w.window)
			if err != nil {
				w.log.Error().Err(err).Msg("renewal pass failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("subscriptions renewed")
			}
		}
	}
}
