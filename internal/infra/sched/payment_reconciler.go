// File: internal/infra/sched/payment_reconciler.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending transactions and
// drives them through reconciliation. This covers payments whose webhook was
// never delivered and whose customer never returned to the callback URL.
type PaymentReconciler struct {
	reconcile  usecase.ReconcileUseCase
	txns       repository.PaymentTransactionRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	reconcile usecase.ReconcileUseCase,
	txns repository.PaymentTransactionRepository,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	wlog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		reconcile:  reconcile,
		txns:       txns,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &wlog,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	pending, err := w.txns.ListPendingOlderThan(ctx, nil, w.staleAfter, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending transactions failed")
		return
	}
	for _, t := range pending {
		res, err := w.reconcile.ByReference(ctx, "poller", t.Reference)
		if err != nil {
			w.log.Warn().Err(err).Str("reference", t.Reference).Msg("reconcile failed")
			continue
		}
		if !res.AlreadyFinal {
			w.log.Info().Str("reference", t.Reference).Str("status", res.Status).Msg("stale payment reconciled")
		}
	}
}
