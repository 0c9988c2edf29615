package adapter

import (
	"context"
	"time"

	"iptv-subscription-platform/internal/domain/model"
)

// CheckoutSession is the result of initiating a hosted payment session.
type CheckoutSession struct {
	CheckoutURL string
	Reference   string // provider reference used for verification and webhooks
	SessionID   string // provider session id when distinct from the reference
}

// VerifyResult is the normalized outcome of a gateway status query.
type VerifyResult struct {
	Success bool
	// ChargedMinor is the amount the gateway reports as actually charged, in
	// minor units. Authoritative over the local expected amount.
	ChargedMinor int64
	Currency     string
	// AuthorizationCode is a reusable token for recurring charges when the
	// provider issued one.
	AuthorizationCode string
	PaidAt            *time.Time
	FailureCode       string
	FailureMessage    string
	Raw               map[string]any
}

// WebhookEvent is a provider event mapped into a gateway-neutral shape.
type WebhookEvent struct {
	Event     string // normalized: "payment.success", "payment.failed", ...
	Reference string
	Data      map[string]any
}

type RefundResult struct {
	RefundID    string
	Status      string
	RefundMinor int64
	ProcessedAt time.Time
}

type ChargeResult struct {
	Success      bool
	Reference    string
	ChargedMinor int64
	FailureCode  string
}

// PaymentGateway is the hex port for payment providers. Implementations must
// return domain.ErrGatewayUnavailable from InitiatePayment when credentials
// are missing and domain.ErrGatewayRequestFail on transport errors.
type PaymentGateway interface {
	// Identifier is the stable registry key ("paystack", "stripe").
	Identifier() string
	// Available reports whether required credentials are configured.
	Available() bool
	SupportedCurrencies() []string

	// InitiatePayment creates a hosted payment session for the plan purchase.
	InitiatePayment(ctx context.Context, user *model.User, plan *model.Plan, callbackURL string, meta map[string]any) (*CheckoutSession, error)

	// VerifyPayment queries the provider's transaction-status endpoint by
	// reference. Idempotent on the provider side.
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)

	// ParseWebhook maps the provider payload into a normalized event. It does
	// not verify the signature; callers gate on VerifyWebhookSignature first.
	ParseWebhook(payload []byte) (*WebhookEvent, error)

	// VerifyWebhookSignature checks the provider signature over the raw,
	// unparsed request body using constant-time comparison. Returns
	// domain.ErrWebhookAuthNotConfigured when no webhook secret is set.
	VerifyWebhookSignature(rawBody []byte, signatureHeader string) error

	// Refund issues a full or partial refund; amountMinor <= 0 means full.
	Refund(ctx context.Context, reference string, amountMinor int64, reason string) (*RefundResult, error)

	// ChargeRecurring bills a stored payment method, used by plan renewals.
	ChargeRecurring(ctx context.Context, authorizationCode string, amountMinor int64, currency string, meta map[string]any) (*ChargeResult, error)
}
