package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending" // paid for but not yet provisioned
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the user's entitlement to a plan. At most one live
// ServiceAccount backs it; ServiceAccountID is set once by provisioning and
// the link is a lookup relation, not ownership.
type Subscription struct {
	ID               string
	UserID           string
	PlanID           string
	Status           SubscriptionStatus
	ExpiresAt        *time.Time
	AutoRenew        bool
	ServiceAccountID *string
	SuspensionReason string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSubscription creates a pending subscription awaiting payment and
// provisioning. Expiry is set when the service account is created.
func NewSubscription(id, userID, planID string) (*Subscription, error) {
	if id == "" || userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:        id,
		UserID:    userID,
		PlanID:    planID,
		Status:    SubscriptionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Activate marks the subscription live for the plan duration, anchored at now.
func (s *Subscription) Activate(plan *Plan) error {
	if plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	now := time.Now()
	exp := now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	s.Status = SubscriptionStatusActive
	s.ExpiresAt = &exp
	s.UpdatedAt = now
	return nil
}

// Extend pushes expiry forward by the plan duration, from the current expiry
// when still in the future, otherwise from now.
func (s *Subscription) Extend(plan *Plan) error {
	if plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	now := time.Now()
	base := now
	if s.ExpiresAt != nil && s.ExpiresAt.After(now) {
		base = *s.ExpiresAt
	}
	exp := base.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	s.Status = SubscriptionStatusActive
	s.ExpiresAt = &exp
	s.UpdatedAt = now
	return nil
}

// Remaining returns the time left until expiry, zero when expired or unset.
func (s *Subscription) Remaining(now time.Time) time.Duration {
	if s.ExpiresAt == nil || !s.ExpiresAt.After(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
