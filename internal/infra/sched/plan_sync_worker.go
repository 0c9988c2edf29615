// File: internal/infra/sched/plan_sync_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/usecase"
)

// PlanSyncWorker refreshes plans from the storefront catalog and keeps the
// subscription gauges current.
type PlanSyncWorker struct {
	interval time.Duration
	wooUC    usecase.WooSyncUseCase
	statsUC  usecase.StatsUseCase
	log      *zerolog.Logger
}

func NewPlanSyncWorker(interval time.Duration, wooUC usecase.WooSyncUseCase, statsUC usecase.StatsUseCase, logger *zerolog.Logger) *PlanSyncWorker {
	wlog := logger.With().Str("component", "PlanSyncWorker").Logger()
	return &PlanSyncWorker{interval: interval, wooUC: wooUC, statsUC: statsUC, log: &wlog}
}

func (w *PlanSyncWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting plan sync worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// One sync at startup so a fresh deployment has plans before the first
	// interval elapses.
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping plan sync worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PlanSyncWorker) tick(ctx context.Context) {
	if w.wooUC != nil {
		if n, err := w.wooUC.SyncPlans(ctx); err != nil {
			w.log.Warn().Err(err).Msg("plan sync failed")
		} else if n > 0 {
			w.log.Info().Int("count", n).Msg("plans synced")
		}
	}
	if err := w.statsUC.RefreshGauges(ctx); err != nil {
		w.log.Warn().Err(err).Msg("gauge refresh failed")
	}
}
