// File: internal/usecase/plan_change_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
)

var _ PlanChangeUseCase = (*planChangeUC)(nil)

type PlanChangeUseCase interface {
	// RequestUpgrade prices the remainder of the period on the target plan and
	// opens a payment session for the prorated difference. The change
	// completes through reconciliation when the payment lands.
	RequestUpgrade(ctx context.Context, userID, toPlanID, gatewayID string) (*model.PlanChange, string, error)
	// RequestDowngrade schedules the change for the current period boundary;
	// no payment is taken.
	RequestDowngrade(ctx context.Context, userID, toPlanID string) (*model.PlanChange, error)
	// Cancel aborts a non-terminal change.
	Cancel(ctx context.Context, userID, changeID string) error
	// Apply performs the plan mutation for a completed change. Called by
	// reconciliation (upgrades) and the scheduler (downgrades).
	Apply(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error
	// ExecuteDue applies scheduled downgrades whose time has come.
	ExecuteDue(ctx context.Context, now time.Time) (int, error)
}

type planChangeUC struct {
	changes  repository.PlanChangeRepository
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	users    repository.UserRepository
	txns     repository.PaymentTransactionRepository
	gateways GatewayManager
	tm       repository.TransactionManager
	notify   NotificationUseCase
	callback CallbackURLBuilder
	log      *zerolog.Logger
}

// CallbackURLBuilder builds the public redirect URL for a gateway.
type CallbackURLBuilder func(gatewayID string) string

func NewPlanChangeUseCase(
	changes repository.PlanChangeRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	txns repository.PaymentTransactionRepository,
	gateways GatewayManager,
	tm repository.TransactionManager,
	notify NotificationUseCase,
	callback CallbackURLBuilder,
	logger *zerolog.Logger,
) *planChangeUC {
	return &planChangeUC{
		changes:  changes,
		subs:     subs,
		plans:    plans,
		users:    users,
		txns:     txns,
		gateways: gateways,
		tm:       tm,
		notify:   notify,
		callback: callback,
		log:      logger,
	}
}

func (u *planChangeUC) RequestUpgrade(ctx context.Context, userID, toPlanID, gatewayID string) (*model.PlanChange, string, error) {
	sub, err := u.subs.FindActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, "", err
	}
	if existing, err := u.changes.FindPendingByUser(ctx, nil, userID); err == nil && existing != nil {
		return nil, "", domain.ErrAlreadyExists
	}

	fromPlan, err := u.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, "", err
	}
	toPlan, err := u.plans.FindByID(ctx, toPlanID)
	if err != nil {
		return nil, "", err
	}
	if toPlan.PriceMinor <= fromPlan.PriceMinor {
		return nil, "", domain.ErrInvalidArgument
	}

	proration, credit := prorate(sub, fromPlan, toPlan, time.Now())

	pc, err := model.NewPlanChange(uuid.NewString(), userID, sub.ID, fromPlan.ID, toPlan.ID, model.PlanChangeUpgrade)
	if err != nil {
		return nil, "", err
	}
	pc.ProrationMinor = proration
	pc.CreditMinor = credit

	gw, err := u.gateways.Gateway(gatewayID)
	if err != nil {
		return nil, "", err
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	// A synthetic plan carries the prorated price into the payment session.
	chargePlan := *toPlan
	chargePlan.PriceMinor = proration
	chargePlan.Name = fmt.Sprintf("Upgrade to %s", toPlan.Name)

	session, err := gw.InitiatePayment(ctx, user, &chargePlan, u.callback(gw.Identifier()), map[string]any{
		"plan_change_id": pc.ID,
		"kind":           "plan_change",
	})
	if err != nil {
		return nil, "", err
	}

	pc.PaymentReference = session.Reference
	pc.Gateway = gw.Identifier()
	if err := u.changes.Save(ctx, nil, pc); err != nil {
		return nil, "", err
	}
	return pc, session.CheckoutURL, nil
}

func (u *planChangeUC) RequestDowngrade(ctx context.Context, userID, toPlanID string) (*model.PlanChange, error) {
	sub, err := u.subs.FindActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if existing, err := u.changes.FindPendingByUser(ctx, nil, userID); err == nil && existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	fromPlan, err := u.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	toPlan, err := u.plans.FindByID(ctx, toPlanID)
	if err != nil {
		return nil, err
	}
	if toPlan.PriceMinor >= fromPlan.PriceMinor {
		return nil, domain.ErrInvalidArgument
	}
	if sub.ExpiresAt == nil {
		return nil, domain.ErrInvalidArgument
	}

	pc, err := model.NewPlanChange(uuid.NewString(), userID, sub.ID, fromPlan.ID, toPlan.ID, model.PlanChangeDowngrade)
	if err != nil {
		return nil, err
	}
	pc.ScheduledAt = sub.ExpiresAt
	if err := u.changes.Save(ctx, nil, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

func (u *planChangeUC) Cancel(ctx context.Context, userID, changeID string) error {
	pc, err := u.changes.FindByID(ctx, nil, changeID)
	if err != nil {
		return err
	}
	if pc.UserID != userID {
		return domain.ErrNotFound
	}
	if err := pc.Cancel(); err != nil {
		return err
	}
	now := time.Now()
	won, err := u.changes.CompleteIfPending(ctx, nil, pc.ID, model.PlanChangeStatusCancelled, "cancelled by user", &now)
	if err != nil {
		return err
	}
	if !won {
		return domain.ErrAlreadyFinalized
	}
	return nil
}

// Apply swaps the subscription's plan. For upgrades the expiry is untouched
// (the prorated charge covered the remainder); for downgrades the new plan
// takes effect with a fresh period from the boundary.
func (u *planChangeUC) Apply(ctx context.Context, tx repository.Tx, pc *model.PlanChange) error {
	sub, err := u.subs.FindByID(ctx, tx, pc.SubscriptionID)
	if err != nil {
		return err
	}
	toPlan, err := u.plans.FindByID(ctx, pc.ToPlanID)
	if err != nil {
		return err
	}

	sub.PlanID = toPlan.ID
	if pc.Type == model.PlanChangeDowngrade {
		if err := sub.Activate(toPlan); err != nil {
			return err
		}
	} else {
		sub.UpdatedAt = time.Now()
	}
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return err
	}

	u.log.Info().
		Str("plan_change_id", pc.ID).
		Str("subscription_id", sub.ID).
		Str("to_plan", toPlan.ID).
		Str("type", string(pc.Type)).
		Msg("plan change applied")
	return nil
}

func (u *planChangeUC) ExecuteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := u.changes.ListDueScheduled(ctx, nil, now, 0)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, pc := range due {
		won, err := u.changes.CompleteIfPending(ctx, nil, pc.ID, model.PlanChangeStatusCompleted, "", &now)
		if err != nil || !won {
			continue
		}
		if err := u.Apply(ctx, nil, pc); err != nil {
			u.log.Error().Err(err).Str("plan_change_id", pc.ID).Msg("failed to apply scheduled plan change")
			continue
		}
		applied++
		if u.notify != nil {
			_ = u.notify.Notify(ctx, pc.UserID, model.NotificationKindPlanChanged, "Plan changed", "Your scheduled plan change has taken effect.")
		}
	}
	return applied, nil
}

// prorate values the unused remainder of the current period against the
// target plan's daily rate. Both amounts are in minor units.
func prorate(sub *model.Subscription, from, to *model.Plan, now time.Time) (charge, credit int64) {
	if sub.ExpiresAt == nil || from.DurationDays <= 0 || to.DurationDays <= 0 {
		return to.PriceMinor, 0
	}
	remaining := sub.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return to.PriceMinor, 0
	}
	remainingDays := int64(remaining.Hours() / 24)

	credit = from.PriceMinor * remainingDays / int64(from.DurationDays)
	full := to.PriceMinor * remainingDays / int64(to.DurationDays)
	charge = full - credit
	if charge < 0 {
		charge = 0
	}
	return charge, credit
}
