package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/infra/metrics"
)

// PaystackGateway implements adapter.PaymentGateway using direct HTTP calls
// against the Paystack REST API. Amounts are passed through in minor units
// (kobo), which is what Paystack expects.
type PaystackGateway struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	currency      string
	client        *http.Client
}

var _ adapter.PaymentGateway = (*PaystackGateway)(nil)

func NewPaystackGateway(cfg config.GatewayConfig, timeout time.Duration) *PaystackGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Paystack signs webhooks with the account secret key unless a dedicated
	// secret is configured.
	whSecret := cfg.WebhookSecret
	if whSecret == "" {
		whSecret = cfg.SecretKey
	}
	return &PaystackGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: whSecret,
		baseURL:       cfg.BaseURL,
		currency:      cfg.Currency,
		client:        &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Identifier() string { return "paystack" }

func (g *PaystackGateway) Available() bool { return g.secretKey != "" }

func (g *PaystackGateway) SupportedCurrencies() []string {
	return []string{"NGN", "GHS", "ZAR", "KES", "USD"}
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (g *PaystackGateway) InitiatePayment(ctx context.Context, user *model.User, plan *model.Plan, callbackURL string, meta map[string]any) (*adapter.CheckoutSession, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	currency := plan.Currency
	if currency == "" {
		currency = g.currency
	}
	requestData := map[string]any{
		"email":        user.Email,
		"amount":       plan.PriceMinor,
		"currency":     currency,
		"callback_url": callbackURL,
	}
	if meta != nil {
		requestData["metadata"] = meta
	}

	var response paystackInitResponse
	if err := g.post(ctx, "/transaction/initialize", requestData, &response); err != nil {
		return nil, err
	}
	if !response.Status {
		return nil, fmt.Errorf("paystack initialize: %s: %w", response.Message, domain.ErrGatewayRequestFail)
	}

	return &adapter.CheckoutSession{
		CheckoutURL: response.Data.AuthorizationURL,
		Reference:   response.Data.Reference,
		SessionID:   response.Data.AccessCode,
	}, nil
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string `json:"status"` // 'success' | 'failed' | 'abandoned'
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
		Authorization   struct {
			AuthorizationCode string `json:"authorization_code"`
			Reusable          bool   `json:"reusable"`
		} `json:"authorization"`
	} `json:"data"`
}

func (g *PaystackGateway) VerifyPayment(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	start := time.Now()
	var response paystackVerifyResponse
	err := g.get(ctx, "/transaction/verify/"+reference, &response)
	metrics.ObserveGatewayRequest("paystack", "verify", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if !response.Status {
		return nil, fmt.Errorf("paystack verify: %s: %w", response.Message, domain.ErrGatewayRequestFail)
	}

	out := &adapter.VerifyResult{
		Success:      response.Data.Status == "success",
		ChargedMinor: response.Data.Amount,
		Currency:     response.Data.Currency,
	}
	if out.Success && response.Data.Authorization.Reusable {
		out.AuthorizationCode = response.Data.Authorization.AuthorizationCode
	}
	if !out.Success {
		out.FailureCode = response.Data.Status
		out.FailureMessage = response.Data.GatewayResponse
	}
	if t, err := time.Parse(time.RFC3339, response.Data.PaidAt); err == nil {
		out.PaidAt = &t
	}
	return out, nil
}

type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string         `json:"reference"`
		Amount    int64          `json:"amount"`
		Currency  string         `json:"currency"`
		Status    string         `json:"status"`
		Metadata  map[string]any `json:"metadata"`
	} `json:"data"`
}

func (g *PaystackGateway) ParseWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	var p paystackWebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse paystack webhook: %w", err)
	}

	event := "unknown"
	switch p.Event {
	case "charge.success":
		event = "payment.success"
	case "charge.failed":
		event = "payment.failed"
	case "refund.processed":
		event = "refund.processed"
	}

	return &adapter.WebhookEvent{
		Event:     event,
		Reference: p.Data.Reference,
		Data: map[string]any{
			"amount":   p.Data.Amount,
			"currency": p.Data.Currency,
			"status":   p.Data.Status,
			"metadata": p.Data.Metadata,
		},
	}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 hex digest Paystack sends in
// X-Paystack-Signature, computed over the raw body.
func (g *PaystackGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) error {
	if g.webhookSecret == "" {
		return domain.ErrWebhookAuthNotConfigured
	}
	if signatureHeader == "" {
		return domain.ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha512.New, []byte(g.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return domain.ErrInvalidWebhookSignature
	}
	return nil
}

type paystackRefundResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"data"`
}

func (g *PaystackGateway) Refund(ctx context.Context, reference string, amountMinor int64, reason string) (*adapter.RefundResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	requestData := map[string]any{"transaction": reference}
	if amountMinor > 0 {
		requestData["amount"] = amountMinor
	}
	if reason != "" {
		requestData["merchant_note"] = reason
	}

	var response paystackRefundResponse
	if err := g.post(ctx, "/refund", requestData, &response); err != nil {
		return nil, err
	}
	if !response.Status {
		return nil, fmt.Errorf("paystack refund: %s: %w", response.Message, domain.ErrGatewayRequestFail)
	}

	return &adapter.RefundResult{
		RefundID:    fmt.Sprintf("%d", response.Data.ID),
		Status:      response.Data.Status,
		RefundMinor: response.Data.Amount,
		ProcessedAt: time.Now(),
	}, nil
}

func (g *PaystackGateway) ChargeRecurring(ctx context.Context, authorizationCode string, amountMinor int64, currency string, meta map[string]any) (*adapter.ChargeResult, error) {
	if !g.Available() {
		return nil, domain.ErrGatewayUnavailable
	}

	email, _ := meta["email"].(string)
	requestData := map[string]any{
		"authorization_code": authorizationCode,
		"email":              email,
		"amount":             amountMinor,
		"currency":           currency,
	}

	var response paystackVerifyResponse
	if err := g.post(ctx, "/transaction/charge_authorization", requestData, &response); err != nil {
		return nil, err
	}
	if !response.Status {
		return &adapter.ChargeResult{Success: false, FailureCode: response.Message}, nil
	}

	return &adapter.ChargeResult{
		Success:      response.Data.Status == "success",
		ChargedMinor: response.Data.Amount,
		FailureCode:  response.Data.GatewayResponse,
	}, nil
}

func (g *PaystackGateway) post(ctx context.Context, path string, body map[string]any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal paystack request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *PaystackGateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	return g.do(req, out)
}

func (g *PaystackGateway) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request: %v: %w", err, domain.ErrGatewayRequestFail)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read paystack response: %w", domain.ErrGatewayRequestFail)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal paystack response: %v, body: %s: %w", err, string(body), domain.ErrGatewayRequestFail)
	}
	return nil
}
