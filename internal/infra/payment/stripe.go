package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/infra/metrics"
)

// StripeGateway implements adapter.PaymentGateway on top of Stripe Checkout
// Sessions. The session id doubles as the reconciliation reference.
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	currency      string
}

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

func NewStripeGateway(cfg config.GatewayConfig) *StripeGateway {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &StripeGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

func (g *StripeGateway) Identifier() string { return "stripe" }

func (g *StripeGateway) Available() bool { return g.secretKey != "" }

func (g *StripeGateway) SupportedCurrencies() []string {
	return []string{"USD", "EUR", "GBP", "CAD", "AUD"}
}

func (g *StripeGateway) InitiatePayment(ctx context.Context, user *model.User, plan *model.Plan, callbackURL string, meta map[string]any) (*adapter.CheckoutSession, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	currency := plan.Currency
	if currency == "" {
		currency = g.currency
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(user.Email),
		SuccessURL:    stripe.String(callbackURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(callbackURL + "?session_id={CHECKOUT_SESSION_ID}&cancelled=1"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(currency)),
				UnitAmount: stripe.Int64(plan.PriceMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(plan.Name),
				},
			},
		}},
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, fmt.Sprintf("%v", v))
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session create: %v: %w", err, domain.ErrGatewayRequestFail)
	}

	return &adapter.CheckoutSession{
		CheckoutURL: s.URL,
		Reference:   s.ID,
		SessionID:   s.ID,
	}, nil
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	start := time.Now()
	s, err := session.Get(reference, params)
	metrics.ObserveGatewayRequest("stripe", "verify", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("stripe session get: %v: %w", err, domain.ErrGatewayRequestFail)
	}

	out := &adapter.VerifyResult{
		Success:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		ChargedMinor: s.AmountTotal,
		Currency:     strings.ToUpper(string(s.Currency)),
	}
	if out.Success {
		now := time.Unix(s.Created, 0)
		out.PaidAt = &now
		if s.Customer != nil {
			// Recurring charges bill the customer's saved default method.
			out.AuthorizationCode = s.Customer.ID
		}
	} else {
		out.FailureCode = string(s.Status)
		out.FailureMessage = "payment not completed"
	}
	return out, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse stripe webhook: %w", err)
	}

	event := "unknown"
	switch ev.Type {
	case "checkout.session.completed":
		event = "payment.success"
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		event = "payment.failed"
	case "charge.refunded":
		event = "refund.processed"
	}

	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(ev.Data.Raw, &obj)

	data := map[string]any{}
	_ = json.Unmarshal(ev.Data.Raw, &data)

	return &adapter.WebhookEvent{
		Event:     event,
		Reference: obj.ID,
		Data:      data,
	}, nil
}

// VerifyWebhookSignature delegates to stripe-go, which checks the HMAC and a
// timestamp tolerance window against replays.
func (g *StripeGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) error {
	if g.webhookSecret == "" {
		return domain.ErrWebhookAuthNotConfigured
	}
	if signatureHeader == "" {
		return domain.ErrInvalidWebhookSignature
	}
	_, err := webhook.ConstructEventWithOptions(rawBody, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.ErrInvalidWebhookSignature
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string, amountMinor int64, reason string) (*adapter.RefundResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	s, err := session.Get(reference, sessParams)
	if err != nil {
		return nil, fmt.Errorf("stripe session get: %v: %w", err, domain.ErrGatewayRequestFail)
	}
	if s.PaymentIntent == nil {
		return nil, domain.ErrReferenceNotFound
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(s.PaymentIntent.ID),
	}
	params.Context = ctx
	if amountMinor > 0 {
		params.Amount = stripe.Int64(amountMinor)
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %v: %w", err, domain.ErrGatewayRequestFail)
	}

	return &adapter.RefundResult{
		RefundID:    r.ID,
		Status:      string(r.Status),
		RefundMinor: r.Amount,
		ProcessedAt: time.Unix(r.Created, 0),
	}, nil
}

// ChargeRecurring creates and confirms an off-session PaymentIntent against
// the customer's default saved payment method.
func (g *StripeGateway) ChargeRecurring(ctx context.Context, authorizationCode string, amountMinor int64, currency string, meta map[string]any) (*adapter.ChargeResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(amountMinor),
		Currency:   stripe.String(strings.ToLower(currency)),
		Customer:   stripe.String(authorizationCode),
		OffSession: stripe.Bool(true),
		Confirm:    stripe.Bool(true),
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, fmt.Sprintf("%v", v))
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok {
			return &adapter.ChargeResult{Success: false, FailureCode: string(stripeErr.Code)}, nil
		}
		return nil, fmt.Errorf("stripe charge: %v: %w", err, domain.ErrGatewayRequestFail)
	}

	return &adapter.ChargeResult{
		Success:      pi.Status == stripe.PaymentIntentStatusSucceeded,
		Reference:    pi.ID,
		ChargedMinor: pi.Amount,
	}, nil
}
