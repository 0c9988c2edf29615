package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type PlanChangeType string

const (
	PlanChangeUpgrade   PlanChangeType = "upgrade"
	PlanChangeDowngrade PlanChangeType = "downgrade"
)

type PlanChangeStatus string

const (
	PlanChangeStatusPending   PlanChangeStatus = "pending"
	PlanChangeStatusCompleted PlanChangeStatus = "completed"
	PlanChangeStatusFailed    PlanChangeStatus = "failed"
	PlanChangeStatusCancelled PlanChangeStatus = "cancelled"
)

func (s PlanChangeStatus) IsTerminal() bool {
	return s == PlanChangeStatusCompleted || s == PlanChangeStatusFailed || s == PlanChangeStatusCancelled
}

// PlanChange tracks a requested move between plans on a live subscription.
// Upgrades carry a PaymentReference and complete through reconciliation;
// downgrades carry a ScheduledAt and execute at the period boundary.
type PlanChange struct {
	ID               string
	UserID           string
	SubscriptionID   string
	FromPlanID       string
	ToPlanID         string
	Type             PlanChangeType
	Status           PlanChangeStatus
	PaymentReference string // gateway reference when payment is required
	Gateway          string
	ProrationMinor   int64 // amount charged for the remainder of the period
	CreditMinor      int64 // unused value carried to the new plan
	ScheduledAt      *time.Time
	ExecutedAt       *time.Time
	FailureReason    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Cancel transitions to Cancelled; only valid while non-terminal.
func (pc *PlanChange) Cancel() error {
	if pc.Status.IsTerminal() {
		return domain.ErrAlreadyFinalized
	}
	pc.Status = PlanChangeStatusCancelled
	pc.UpdatedAt = time.Now()
	return nil
}

func NewPlanChange(id, userID, subscriptionID, fromPlanID, toPlanID string, typ PlanChangeType) (*PlanChange, error) {
	if id == "" || userID == "" || subscriptionID == "" || fromPlanID == "" || toPlanID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if fromPlanID == toPlanID {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PlanChange{
		ID:             id,
		UserID:         userID,
		SubscriptionID: subscriptionID,
		FromPlanID:     fromPlanID,
		ToPlanID:       toPlanID,
		Type:           typ,
		Status:         PlanChangeStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
