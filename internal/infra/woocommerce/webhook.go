package woocommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"iptv-subscription-platform/internal/domain"
)

// VerifySignature checks the HMAC-SHA256 base64 digest WooCommerce sends in
// X-WC-Webhook-Signature, computed over the raw body.
func VerifySignature(secret string, rawBody []byte, signatureHeader string) error {
	if secret == "" {
		return domain.ErrWebhookAuthNotConfigured
	}
	if signatureHeader == "" {
		return domain.ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return domain.ErrInvalidWebhookSignature
	}
	return nil
}

// OrderEvent is the subset of a WooCommerce order webhook the platform acts on.
type OrderEvent struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"` // 'processing' means paid and awaiting fulfilment
	CustomerID  int64  `json:"customer_id"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	DatePaidGMT string `json:"date_paid_gmt"`
	Billing     struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"billing"`
	LineItems []struct {
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Total     string `json:"total"`
	} `json:"line_items"`
}

func ParseOrderEvent(payload []byte) (*OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse woocommerce order: %w", err)
	}
	return &ev, nil
}
