package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending" // awaiting gateway confirmation
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// IsTerminal reports whether no further transition is permitted.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// PaymentTransaction records one checkout attempt against a gateway.
// Created at checkout initiation, mutated only by reconciliation, never
// deleted. Status leaves Pending exactly once.
type PaymentTransaction struct {
	ID          string // UUID
	UserID      string
	OrderID     string // set for new-subscription purchases
	Gateway     string // "paystack" | "stripe"
	Reference   string // gateway-issued, unique per gateway
	AmountMinor int64  // expected amount in minor units
	// ChargedMinor is what the gateway reports as actually charged; it is
	// authoritative once verification succeeds. A mismatch with AmountMinor
	// is logged as an anomaly, never treated as a failure.
	ChargedMinor int64
	Currency     string
	Status       TransactionStatus
	FailureCode  string
	// AuthorizationCode is the gateway token for recurring charges, captured
	// on a successful first charge when the user opted into auto-renew.
	AuthorizationCode string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
	Meta              map[string]interface{}
}

// NewPaymentTransaction constructs a pending transaction for a freshly
// created checkout session.
func NewPaymentTransaction(id, userID, orderID, gateway, reference string, amountMinor int64, currency string) (*PaymentTransaction, error) {
	if id == "" || userID == "" || gateway == "" || reference == "" || amountMinor <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PaymentTransaction{
		ID:          id,
		UserID:      userID,
		OrderID:     orderID,
		Gateway:     gateway,
		Reference:   reference,
		AmountMinor: amountMinor,
		Currency:    currency,
		Status:      TransactionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
