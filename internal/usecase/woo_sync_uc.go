// File: internal/usecase/woo_sync_uc.go
package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
	"iptv-subscription-platform/internal/infra/woocommerce"
)

var _ WooSyncUseCase = (*wooSyncUC)(nil)

// WooSyncUseCase keeps the storefront and the platform in step: products
// become plans, and paid storefront orders become local orders that get
// provisioned.
type WooSyncUseCase interface {
	// SyncPlans pulls published products and upserts the plans they map to.
	// Products without a package_code meta field are skipped.
	SyncPlans(ctx context.Context) (int, error)
	// HandleOrderEvent processes an order webhook. Only 'processing' orders
	// (paid, awaiting fulfilment) are acted on; duplicate deliveries of the
	// same order are no-ops.
	HandleOrderEvent(ctx context.Context, ev *woocommerce.OrderEvent) error
}

type wooSyncUC struct {
	woo    *woocommerce.Client
	plans  repository.PlanRepository
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	orders repository.OrderRepository
	queue  Enqueuer
	provUC ProvisioningUseCase
	log    *zerolog.Logger
}

func NewWooSyncUseCase(
	woo *woocommerce.Client,
	plans repository.PlanRepository,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	orders repository.OrderRepository,
	queue Enqueuer,
	provUC ProvisioningUseCase,
	logger *zerolog.Logger,
) *wooSyncUC {
	return &wooSyncUC{
		woo:    woo,
		plans:  plans,
		users:  users,
		subs:   subs,
		orders: orders,
		queue:  queue,
		provUC: provUC,
		log:    logger,
	}
}

func (u *wooSyncUC) SyncPlans(ctx context.Context) (int, error) {
	if !u.woo.Available() {
		return 0, domain.ErrGatewayUnavailable
	}
	products, err := u.woo.ListProducts(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range products {
		pkg := p.Meta("package_code")
		if pkg == "" {
			continue
		}
		durationDays, _ := strconv.Atoi(p.Meta("duration_days"))
		connections, _ := strconv.Atoi(p.Meta("connections"))
		currency := p.Meta("currency")
		if currency == "" {
			currency = "USD"
		}
		priceMinor, err := parsePriceMinor(p.Price)
		if err != nil {
			u.log.Warn().Err(err).Int64("product_id", p.ID).Msg("skipping product with bad price")
			continue
		}

		plan, err := u.plans.FindByWooProductID(ctx, p.ID)
		if err != nil {
			plan, err = model.NewPlan(uuid.NewString(), p.Name, pkg, durationDays, connections, priceMinor, currency)
			if err != nil {
				u.log.Warn().Err(err).Int64("product_id", p.ID).Msg("skipping invalid product")
				continue
			}
			plan.WooProductID = p.ID
		} else {
			plan.Name = p.Name
			plan.PackageCode = pkg
			if durationDays > 0 {
				plan.DurationDays = durationDays
			}
			if connections > 0 {
				plan.Connections = connections
			}
			plan.PriceMinor = priceMinor
			plan.Currency = currency
			plan.Active = p.Status == "publish"
		}

		if err := u.plans.Save(ctx, plan); err != nil {
			u.log.Error().Err(err).Str("plan_id", plan.ID).Msg("failed to save synced plan")
			continue
		}
		synced++
	}
	u.log.Info().Int("synced", synced).Int("products", len(products)).Msg("plan sync complete")
	return synced, nil
}

func (u *wooSyncUC) HandleOrderEvent(ctx context.Context, ev *woocommerce.OrderEvent) error {
	if ev.Status != "processing" {
		u.log.Debug().Int64("woo_order_id", ev.ID).Str("status", ev.Status).Msg("ignoring order event")
		return nil
	}
	if len(ev.LineItems) == 0 {
		return domain.ErrInvalidArgument
	}

	// Webhook deliveries are at-least-once; an existing order means this event
	// was already handled.
	if _, err := u.orders.FindByWooOrderID(ctx, nil, ev.ID); err == nil {
		return nil
	}

	plan, err := u.plans.FindByWooProductID(ctx, ev.LineItems[0].ProductID)
	if err != nil {
		return fmt.Errorf("order %d references unknown product %d: %w", ev.ID, ev.LineItems[0].ProductID, err)
	}

	user, err := u.users.FindByEmail(ctx, ev.Billing.Email)
	if err != nil {
		user = &model.User{
			ID:           uuid.NewString(),
			Email:        ev.Billing.Email,
			Name:         strings.TrimSpace(ev.Billing.FirstName + " " + ev.Billing.LastName),
			RegisteredAt: time.Now(),
			LastActiveAt: time.Now(),
		}
		if err := u.users.Save(ctx, user); err != nil {
			return err
		}
	}

	sub, err := model.NewSubscription(uuid.NewString(), user.ID, plan.ID)
	if err != nil {
		return err
	}
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return err
	}

	amountMinor, err := parsePriceMinor(ev.Total)
	if err != nil {
		amountMinor = plan.PriceMinor
	}
	order, err := model.NewOrder(uuid.NewString(), user.ID, sub.ID, amountMinor, ev.Currency)
	if err != nil {
		return err
	}
	order.WooOrderID = ev.ID
	if paidAt, perr := time.Parse("2006-01-02T15:04:05", ev.DatePaidGMT); perr == nil {
		order.PaidAt = &paidAt
	}
	if err := u.orders.Save(ctx, nil, order); err != nil {
		return err
	}
	metrics.IncWebhook("woocommerce", "order_accepted")

	orderID, subID, planID, wooOrderID := order.ID, sub.ID, plan.ID, ev.ID
	return u.queue.Submit("provision_order", func(jobCtx context.Context) error {
		if err := u.provUC.ProvisionOrder(jobCtx, orderID, subID, planID); err != nil {
			return err
		}
		if u.woo.Available() {
			if err := u.woo.CompleteOrder(jobCtx, wooOrderID, "Your IPTV access details have been emailed to you."); err != nil {
				u.log.Warn().Err(err).Int64("woo_order_id", wooOrderID).Msg("failed to complete storefront order")
			}
		}
		return nil
	})
}

// parsePriceMinor converts a WooCommerce decimal price string ("12.99") into
// minor currency units.
func parsePriceMinor(price string) (int64, error) {
	if price == "" {
		return 0, domain.ErrInvalidArgument
	}
	f, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}
