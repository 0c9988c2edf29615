// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
)

var _ StatsUseCase = (*statsUC)(nil)

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	Users        int              `json:"users"`
	ActiveByPlan map[string]int   `json:"active_by_plan"`
	ActiveTotal  int              `json:"active_total"`
	RevenueMinor map[string]int64 `json:"revenue_minor"` // keyed by period: day, week, month
}

type StatsUseCase interface {
	Snapshot(ctx context.Context) (*PlatformStats, error)
	// RefreshGauges pushes current subscription counts into the metrics
	// registry; run periodically.
	RefreshGauges(ctx context.Context) error
}

type statsUC struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
	txns  repository.PaymentTransactionRepository
	log   *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	txns repository.PaymentTransactionRepository,
	logger *zerolog.Logger,
) *statsUC {
	return &statsUC{users: users, subs: subs, txns: txns, log: logger}
}

func (u *statsUC) Snapshot(ctx context.Context) (*PlatformStats, error) {
	users, err := u.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	byPlan, err := u.subs.CountActiveByPlan(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{
		Users:        users,
		ActiveByPlan: byPlan,
		RevenueMinor: map[string]int64{},
	}
	for _, n := range byPlan {
		stats.ActiveTotal += n
	}
	for _, period := range []string{"day", "week", "month"} {
		sum, err := u.txns.SumByPeriod(ctx, nil, period)
		if err != nil {
			u.log.Warn().Err(err).Str("period", period).Msg("revenue query failed")
			continue
		}
		stats.RevenueMinor[period] = sum
	}
	return stats, nil
}

func (u *statsUC) RefreshGauges(ctx context.Context) error {
	byPlan, err := u.subs.CountActiveByPlan(ctx, nil)
	if err != nil {
		return err
	}
	for plan, n := range byPlan {
		metrics.SetActiveSubscriptions(plan, n)
	}
	return nil
}
