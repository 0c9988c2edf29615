// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
)

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	Get(ctx context.Context, userID string) (*model.Subscription, *model.ServiceAccount, error)
	SetAutoRenew(ctx context.Context, userID string, on bool) error
	// ExpireOverdue marks active subscriptions past expiry and suspends their
	// upstream lines. Returns how many were expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	// RenewDue charges auto-renew subscriptions nearing expiry against their
	// stored payment method and extends the upstream line on success.
	RenewDue(ctx context.Context, window time.Duration) (int, error)
}

type subscriptionUC struct {
	subs      repository.SubscriptionRepository
	accounts  repository.ServiceAccountRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	txns      repository.PaymentTransactionRepository
	gateways  GatewayManager
	provision ProvisioningUseCase
	notify    NotificationUseCase
	log       *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	accounts repository.ServiceAccountRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	txns repository.PaymentTransactionRepository,
	gateways GatewayManager,
	provision ProvisioningUseCase,
	notify NotificationUseCase,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{
		subs:      subs,
		accounts:  accounts,
		plans:     plans,
		users:     users,
		txns:      txns,
		gateways:  gateways,
		provision: provision,
		notify:    notify,
		log:       logger,
	}
}

func (u *subscriptionUC) Get(ctx context.Context, userID string) (*model.Subscription, *model.ServiceAccount, error) {
	sub, err := u.subs.FindActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, nil, err
	}
	if sub.ServiceAccountID == nil {
		return sub, nil, nil
	}
	account, err := u.accounts.FindByID(ctx, nil, *sub.ServiceAccountID)
	if err != nil {
		return sub, nil, nil
	}
	return sub, account, nil
}

func (u *subscriptionUC) SetAutoRenew(ctx context.Context, userID string, on bool) error {
	sub, err := u.subs.FindActiveByUser(ctx, nil, userID)
	if err != nil {
		return err
	}
	sub.AutoRenew = on
	sub.UpdatedAt = time.Now()
	return u.subs.Save(ctx, nil, sub)
}

func (u *subscriptionUC) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	expired, err := u.subs.ListExpired(ctx, nil, now, 0)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, sub := range expired {
		sub.Status = model.SubscriptionStatusExpired
		sub.UpdatedAt = now
		if err := u.subs.Save(ctx, nil, sub); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to expire subscription")
			continue
		}
		if sub.ServiceAccountID != nil {
			if err := u.accounts.UpdateStatus(ctx, nil, *sub.ServiceAccountID, model.ServiceAccountStatusExpired); err != nil {
				u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to expire service account")
			}
		}
		n++
		metrics.IncSubscriptionEvent("expired")
		_ = u.notify.Notify(ctx, sub.UserID, model.NotificationKindAccountExpired, "Subscription expired",
			"Your subscription has expired. Renew to restore your service.")
	}
	return n, nil
}

func (u *subscriptionUC) RenewDue(ctx context.Context, window time.Duration) (int, error) {
	due, err := u.subs.FindExpiring(ctx, nil, window, 0)
	if err != nil {
		return 0, err
	}

	renewed := 0
	for _, sub := range due {
		if !sub.AutoRenew {
			continue
		}
		if err := u.renewOne(ctx, sub); err != nil {
			u.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("renewal failed")
			continue
		}
		renewed++
		metrics.IncSubscriptionEvent("renewed")
	}
	return renewed, nil
}

func (u *subscriptionUC) renewOne(ctx context.Context, sub *model.Subscription) error {
	plan, err := u.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return err
	}
	user, err := u.users.FindByID(ctx, sub.UserID)
	if err != nil {
		return err
	}

	// The stored authorization rides on the user's last successful charge.
	last, err := u.txns.FindLastAuthorizedByUser(ctx, nil, sub.UserID)
	if err != nil {
		return err
	}

	gw, err := u.gateways.Gateway(last.Gateway)
	if err != nil {
		return err
	}

	charge, err := gw.ChargeRecurring(ctx, last.AuthorizationCode, plan.PriceMinor, plan.Currency, map[string]any{
		"email":           user.Email,
		"subscription_id": sub.ID,
		"kind":            "renewal",
	})
	if err != nil {
		return err
	}
	if !charge.Success {
		_ = u.notify.Notify(ctx, sub.UserID, model.NotificationKindPaymentFailed, "Renewal payment failed",
			"We could not charge your saved payment method. Please renew manually to avoid interruption.")
		return domain.ErrOperationFailed
	}

	// Record the settled renewal as a transaction for the books.
	txn, err := model.NewPaymentTransaction(uuid.NewString(), sub.UserID, "", last.Gateway, charge.Reference, plan.PriceMinor, plan.Currency)
	if err == nil {
		now := time.Now()
		txn.Status = model.TransactionStatusSuccess
		txn.ChargedMinor = charge.ChargedMinor
		txn.AuthorizationCode = last.AuthorizationCode
		txn.PaidAt = &now
		txn.Meta = map[string]interface{}{"kind": "renewal", "subscription_id": sub.ID}
		if err := u.txns.Save(ctx, nil, txn); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to record renewal transaction")
		}
		metrics.IncPayment(last.Gateway, "succeeded")
		metrics.AddPaymentRevenue(plan.Currency, charge.ChargedMinor)
	}

	if err := u.provision.ExtendSubscription(ctx, sub.ID); err != nil {
		return err
	}

	_ = u.notify.Notify(ctx, sub.UserID, model.NotificationKindRenewalCharged, "Subscription renewed",
		"Your subscription was renewed and your service has been extended.")
	return nil
}
