// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
)

// GatewayManager resolves gateway identifiers to instances; an empty
// identifier resolves the configured default.
type GatewayManager interface {
	Gateway(identifier string) (adapter.PaymentGateway, error)
	DirectGateways() []adapter.PaymentGateway
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate creates the pending subscription/order/transaction triple and
	// opens a hosted payment session. The returned URL is where the user pays.
	Initiate(ctx context.Context, email, name, planID, gatewayID string) (*model.PaymentTransaction, string, error)
	// Gateways lists the gateways a checkout page may offer.
	Gateways(ctx context.Context) []adapter.PaymentGateway
}

type checkoutUC struct {
	users    repository.UserRepository
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	orders   repository.OrderRepository
	txns     repository.PaymentTransactionRepository
	gateways GatewayManager
	callback CallbackURLBuilder
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	orders repository.OrderRepository,
	txns repository.PaymentTransactionRepository,
	gateways GatewayManager,
	callback CallbackURLBuilder,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		users:    users,
		plans:    plans,
		subs:     subs,
		orders:   orders,
		txns:     txns,
		gateways: gateways,
		callback: callback,
		log:      logger,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, email, name, planID, gatewayID string) (*model.PaymentTransaction, string, error) {
	plan, err := u.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, "", err
	}
	if !plan.Active {
		return nil, "", domain.ErrNotFound
	}

	gw, err := u.gateways.Gateway(gatewayID)
	if err != nil {
		return nil, "", err
	}
	if !gw.Available() {
		return nil, "", domain.ErrGatewayUnavailable
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		user = &model.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         name,
			RegisteredAt: time.Now(),
			LastActiveAt: time.Now(),
		}
		if err := u.users.Save(ctx, user); err != nil {
			return nil, "", err
		}
	}

	sub, err := model.NewSubscription(uuid.NewString(), user.ID, plan.ID)
	if err != nil {
		return nil, "", err
	}
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return nil, "", err
	}

	order, err := model.NewOrder(uuid.NewString(), user.ID, sub.ID, plan.PriceMinor, plan.Currency)
	if err != nil {
		return nil, "", err
	}
	if err := u.orders.Save(ctx, nil, order); err != nil {
		return nil, "", err
	}

	session, err := gw.InitiatePayment(ctx, user, plan, u.callback(gw.Identifier()), map[string]any{
		"order_id": order.ID,
		"plan_id":  plan.ID,
		"user_id":  user.ID,
	})
	if err != nil {
		metrics.IncPayment(gw.Identifier(), "init_failed")
		return nil, "", err
	}

	txn, err := model.NewPaymentTransaction(uuid.NewString(), user.ID, order.ID, gw.Identifier(), session.Reference, plan.PriceMinor, plan.Currency)
	if err != nil {
		return nil, "", err
	}
	txn.Meta = map[string]interface{}{"plan_id": plan.ID, "session_id": session.SessionID}
	if err := u.txns.Save(ctx, nil, txn); err != nil {
		return nil, "", err
	}

	metrics.IncPayment(gw.Identifier(), "initiated")
	u.log.Info().
		Str("user_id", user.ID).
		Str("plan_id", plan.ID).
		Str("gateway", gw.Identifier()).
		Str("reference", session.Reference).
		Msg("checkout initiated")
	return txn, session.CheckoutURL, nil
}

func (u *checkoutUC) Gateways(ctx context.Context) []adapter.PaymentGateway {
	return u.gateways.DirectGateways()
}
