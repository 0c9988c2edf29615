// File: internal/infra/sched/plan_change_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/usecase"
)

// PlanChangeWorker applies scheduled downgrades once their effective time
// arrives, typically the old plan's expiry.
type PlanChangeWorker struct {
	interval time.Duration
	planUC   usecase.PlanChangeUseCase
	log      *zerolog.Logger
}

func NewPlanChangeWorker(interval time.Duration, planUC usecase.PlanChangeUseCase, logger *zerolog.Logger) *PlanChangeWorker {
	wlog := logger.With().Str("component", "PlanChangeWorker").Logger()
	return &PlanChangeWorker{interval: interval, planUC: planUC, log: &wlog}
}

func (w *PlanChangeWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting plan change worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping plan change worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.planUC.ExecuteDue(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("plan change pass failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("scheduled plan changes applied")
			}
		}
	}
}
