// File: internal/usecase/provisioning_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/domain/ports/repository"
	red "iptv-subscription-platform/internal/infra/redis"
)

var _ ProvisioningUseCase = (*provisioningUC)(nil)

type ProvisioningUseCase interface {
	// ProvisionOrder creates the upstream account for a paid order. Idempotent:
	// a second call observes the order out of pending_provisioning and
	// returns without touching the panel. A retryable error return means the
	// caller's queue should schedule another attempt.
	ProvisionOrder(ctx context.Context, orderID, subscriptionID, planID string) error
	// ExtendSubscription extends the upstream line after a renewal payment.
	ExtendSubscription(ctx context.Context, subscriptionID string) error
	// SuspendSubscription disables the upstream line.
	SuspendSubscription(ctx context.Context, subscriptionID, reason string) error
}

type provisioningUC struct {
	orders      repository.OrderRepository
	subs        repository.SubscriptionRepository
	plans       repository.PlanRepository
	accounts    repository.ServiceAccountRepository
	provLog     repository.ProvisioningLogRepository
	provisioner adapter.Provisioner
	tm          repository.TransactionManager
	locker      red.Locker
	notify      NotificationUseCase
	log         *zerolog.Logger
}

func NewProvisioningUseCase(
	orders repository.OrderRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	accounts repository.ServiceAccountRepository,
	provLog repository.ProvisioningLogRepository,
	provisioner adapter.Provisioner,
	tm repository.TransactionManager,
	locker red.Locker,
	notify NotificationUseCase,
	logger *zerolog.Logger,
) *provisioningUC {
	return &provisioningUC{
		orders:      orders,
		subs:        subs,
		plans:       plans,
		accounts:    accounts,
		provLog:     provLog,
		provisioner: provisioner,
		tm:          tm,
		locker:      locker,
		notify:      notify,
		log:         logger,
	}
}

func (u *provisioningUC) ProvisionOrder(ctx context.Context, orderID, subscriptionID, planID string) error {
	// The lock only trims duplicate panel calls; the conditional order update
	// below is what guarantees at-most-once.
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, red.ProvisionLockKey(orderID), 2*time.Minute)
		if err == nil {
			defer func() { _ = u.locker.Unlock(context.Background(), red.ProvisionLockKey(orderID), token) }()
		}
	}

	order, err := u.orders.FindByID(ctx, nil, orderID)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		u.log.Debug().Str("order_id", orderID).Msg("order already provisioned, skipping")
		return nil
	}

	sub, err := u.subs.FindByID(ctx, nil, subscriptionID)
	if err != nil {
		return err
	}
	plan, err := u.plans.FindByID(ctx, planID)
	if err != nil {
		return err
	}

	attempt, err := u.provLog.LastAttemptNumber(ctx, nil, orderID, model.ProvisioningActionCreate)
	if err != nil {
		attempt = 0
	}
	attempt++

	result, provErr := u.provisioner.CreateAccount(ctx, plan, orderID)
	if provErr != nil {
		return u.recordFailure(ctx, order, model.ProvisioningActionCreate, attempt, provErr)
	}

	now := time.Now()
	accountID := uuid.NewString()
	account := &model.ServiceAccount{
		ID:             accountID,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		UpstreamID:     result.UpstreamID,
		Username:       result.Username,
		Password:       result.Password,
		M3UURL:         result.M3UURL,
		ServerURL:      result.ServerURL,
		PackageCode:    plan.PackageCode,
		Connections:    plan.Connections,
		Status:         model.ServiceAccountStatusActive,
		ExpiresAt:      now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		won, err := u.orders.UpdateStatusIfPending(ctx, tx, orderID, model.OrderStatusProvisioned, &now)
		if err != nil {
			return err
		}
		if !won {
			// Another worker finished first; the account it created stands.
			return domain.ErrAlreadyFinalized
		}
		if err := u.accounts.Save(ctx, tx, account); err != nil {
			return err
		}
		if err := u.subs.SetServiceAccountID(ctx, tx, sub.ID, accountID); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		if err := sub.Activate(plan); err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		return u.provLog.Append(ctx, tx, model.NewProvisioningLog(
			uuid.NewString(), orderID, sub.ID, model.ProvisioningActionCreate, model.ProvisioningStatusSuccess, attempt))
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			return nil
		}
		return err
	}

	u.log.Info().
		Str("order_id", orderID).
		Str("subscription_id", sub.ID).
		Str("username", account.Username).
		Msg("service account provisioned")

	if u.notify != nil {
		body := fmt.Sprintf("Your IPTV account is ready. Username: %s, playlist: %s", account.Username, account.M3UURL)
		_ = u.notify.Notify(ctx, sub.UserID, model.NotificationKindProvisioned, "Your service is ready", body)
	}
	return nil
}

// recordFailure writes the audit row and decides whether the caller retries:
// business rejections are terminal and swallowed into a nil-free error state
// (the order is marked failed); transport failures are re-raised so the
// worker queue schedules another attempt.
func (u *provisioningUC) recordFailure(ctx context.Context, order *model.Order, action model.ProvisioningAction, attempt int, provErr error) error {
	entry := model.NewProvisioningLog(uuid.NewString(), order.ID, order.SubscriptionID, action, model.ProvisioningStatusFailed, attempt)
	entry.ErrorMessage = provErr.Error()

	if domain.IsRetryable(provErr) {
		entry.Status = model.ProvisioningStatusRetrying
		entry.ErrorCode = "ERR_TIMEOUT"
		if err := u.provLog.Append(ctx, nil, entry); err != nil {
			u.log.Error().Err(err).Msg("failed to append provisioning log")
		}
		u.log.Warn().Err(provErr).Str("order_id", order.ID).Int("attempt", attempt).Msg("provisioning transport failure, will retry")
		return provErr
	}

	if err := u.provLog.Append(ctx, nil, entry); err != nil {
		u.log.Error().Err(err).Msg("failed to append provisioning log")
	}
	if _, err := u.orders.UpdateStatusIfPending(ctx, nil, order.ID, model.OrderStatusProvisioningFailed, nil); err != nil {
		u.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to mark order failed")
	}
	u.log.Error().Err(provErr).Str("order_id", order.ID).Msg("provisioning rejected by panel")
	return nil
}

func (u *provisioningUC) ExtendSubscription(ctx context.Context, subscriptionID string) error {
	sub, err := u.subs.FindByID(ctx, nil, subscriptionID)
	if err != nil {
		return err
	}
	account, err := u.accounts.FindBySubscriptionID(ctx, nil, subscriptionID)
	if err != nil {
		return err
	}
	plan, err := u.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return err
	}

	if _, err := u.provisioner.ExtendAccount(ctx, account.Username, plan); err != nil {
		entry := model.NewProvisioningLog(uuid.NewString(), "", subscriptionID, model.ProvisioningActionExtend, model.ProvisioningStatusFailed, 1)
		entry.ErrorMessage = err.Error()
		if domain.IsRetryable(err) {
			entry.Status = model.ProvisioningStatusRetrying
			entry.ErrorCode = "ERR_TIMEOUT"
			_ = u.provLog.Append(ctx, nil, entry)
			return err
		}
		_ = u.provLog.Append(ctx, nil, entry)
		return nil
	}

	if err := sub.Extend(plan); err != nil {
		return err
	}
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return err
	}
	if err := u.accounts.ExtendExpiry(ctx, nil, account.ID, *sub.ExpiresAt); err != nil {
		return err
	}
	return u.provLog.Append(ctx, nil, model.NewProvisioningLog(
		uuid.NewString(), "", subscriptionID, model.ProvisioningActionExtend, model.ProvisioningStatusSuccess, 1))
}

func (u *provisioningUC) SuspendSubscription(ctx context.Context, subscriptionID, reason string) error {
	sub, err := u.subs.FindByID(ctx, nil, subscriptionID)
	if err != nil {
		return err
	}
	account, err := u.accounts.FindBySubscriptionID(ctx, nil, subscriptionID)
	if err != nil {
		return err
	}

	if err := u.provisioner.SuspendAccount(ctx, account.Username); err != nil {
		if domain.IsRetryable(err) {
			return err
		}
		u.log.Error().Err(err).Str("subscription_id", subscriptionID).Msg("panel refused suspension")
		return nil
	}

	sub.Status = model.SubscriptionStatusSuspended
	sub.SuspensionReason = reason
	sub.UpdatedAt = time.Now()
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return err
	}
	if err := u.accounts.UpdateStatus(ctx, nil, account.ID, model.ServiceAccountStatusSuspended); err != nil {
		return err
	}
	return u.provLog.Append(ctx, nil, model.NewProvisioningLog(
		uuid.NewString(), "", subscriptionID, model.ProvisioningActionSuspend, model.ProvisioningStatusSuccess, 1))
}
