//go:build !integration

// File: internal/infra/payment/stripe_test.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
)

// stripeSign builds a "t=...,v1=..." header the way Stripe signs deliveries:
// HMAC-SHA256 over "<timestamp>.<body>".
func stripeSign(secret string, body []byte, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`)

	t.Run("valid signature passes", func(t *testing.T) {
		gw := NewStripeGateway(config.GatewayConfig{SecretKey: "sk_test", WebhookSecret: secret})
		if err := gw.VerifyWebhookSignature(body, stripeSign(secret, body, time.Now())); err != nil {
			t.Fatalf("VerifyWebhookSignature: %v", err)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		gw := NewStripeGateway(config.GatewayConfig{SecretKey: "sk_test", WebhookSecret: secret})
		err := gw.VerifyWebhookSignature(body, stripeSign("whsec_other", body, time.Now()))
		if !errors.Is(err, domain.ErrInvalidWebhookSignature) {
			t.Fatalf("err = %v, want ErrInvalidWebhookSignature", err)
		}
	})

	t.Run("stale timestamp is rejected", func(t *testing.T) {
		gw := NewStripeGateway(config.GatewayConfig{SecretKey: "sk_test", WebhookSecret: secret})
		err := gw.VerifyWebhookSignature(body, stripeSign(secret, body, time.Now().Add(-time.Hour)))
		if !errors.Is(err, domain.ErrInvalidWebhookSignature) {
			t.Fatalf("err = %v, want ErrInvalidWebhookSignature", err)
		}
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		gw := NewStripeGateway(config.GatewayConfig{SecretKey: "sk_test", WebhookSecret: secret})
		if err := gw.VerifyWebhookSignature(body, ""); !errors.Is(err, domain.ErrInvalidWebhookSignature) {
			t.Fatalf("err = %v, want ErrInvalidWebhookSignature", err)
		}
	})

	t.Run("no webhook secret configured", func(t *testing.T) {
		gw := NewStripeGateway(config.GatewayConfig{SecretKey: "sk_test"})
		err := gw.VerifyWebhookSignature(body, stripeSign(secret, body, time.Now()))
		if !errors.Is(err, domain.ErrWebhookAuthNotConfigured) {
			t.Fatalf("err = %v, want ErrWebhookAuthNotConfigured", err)
		}
	})
}

func TestStripeParseWebhook(t *testing.T) {
	gw := NewStripeGateway(config.GatewayConfig{})

	t.Run("completed session maps to a success event", func(t *testing.T) {
		ev, err := gw.ParseWebhook([]byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`))
		if err != nil {
			t.Fatalf("ParseWebhook: %v", err)
		}
		if ev.Event != "payment.success" {
			t.Errorf("Event = %s, want payment.success", ev.Event)
		}
		if ev.Reference != "cs_test_1" {
			t.Errorf("Reference = %s, want cs_test_1", ev.Reference)
		}
	})

	t.Run("expired session maps to a failure event", func(t *testing.T) {
		ev, err := gw.ParseWebhook([]byte(`{"type":"checkout.session.expired","data":{"object":{"id":"cs_test_2"}}}`))
		if err != nil {
			t.Fatalf("ParseWebhook: %v", err)
		}
		if ev.Event != "payment.failed" {
			t.Errorf("Event = %s, want payment.failed", ev.Event)
		}
	})

	t.Run("unrelated event types are kept but unlabelled", func(t *testing.T) {
		ev, err := gw.ParseWebhook([]byte(`{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`))
		if err != nil {
			t.Fatalf("ParseWebhook: %v", err)
		}
		if ev.Event != "unknown" {
			t.Errorf("Event = %s, want unknown", ev.Event)
		}
	})
}

func TestStripeUnavailableWithoutCredentials(t *testing.T) {
	gw := NewStripeGateway(config.GatewayConfig{})
	if gw.Available() {
		t.Fatalf("gateway without a secret key must be unavailable")
	}
	if _, err := gw.ChargeRecurring(context.Background(), "cus_1", 5000, "USD", nil); !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}
