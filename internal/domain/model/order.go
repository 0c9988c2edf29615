package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPendingProvisioning OrderStatus = "pending_provisioning"
	OrderStatusProvisioned         OrderStatus = "provisioned"
	OrderStatusProvisioningFailed  OrderStatus = "provisioning_failed"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusProvisioned || s == OrderStatusProvisioningFailed
}

// Order tracks a paid purchase through provisioning. WooOrderID links back to
// the storefront order when the purchase originated there.
type Order struct {
	ID             string
	UserID         string
	SubscriptionID string
	WooOrderID     int64
	Status         OrderStatus
	AmountMinor    int64
	Currency       string
	PaidAt         *time.Time
	ProvisionedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewOrder(id, userID, subscriptionID string, amountMinor int64, currency string) (*Order, error) {
	if id == "" || userID == "" || subscriptionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amountMinor < 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Order{
		ID:             id,
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Status:         OrderStatusPendingProvisioning,
		AmountMinor:    amountMinor,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
