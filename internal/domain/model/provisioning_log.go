package model

import "time"

type ProvisioningAction string

const (
	ProvisioningActionCreate  ProvisioningAction = "create"
	ProvisioningActionExtend  ProvisioningAction = "extend"
	ProvisioningActionSuspend ProvisioningAction = "suspend"
)

type ProvisioningStatus string

const (
	ProvisioningStatusSuccess  ProvisioningStatus = "success"
	ProvisioningStatusFailed   ProvisioningStatus = "failed"
	ProvisioningStatusRetrying ProvisioningStatus = "retrying"
)

// ProvisioningLog is an append-only audit row, one per provisioning attempt.
type ProvisioningLog struct {
	ID             string
	OrderID        string
	SubscriptionID string
	Action         ProvisioningAction
	Status         ProvisioningStatus
	AttemptNumber  int
	ErrorCode      string
	ErrorMessage   string
	CreatedAt      time.Time
}

func NewProvisioningLog(id, orderID, subscriptionID string, action ProvisioningAction, status ProvisioningStatus, attempt int) *ProvisioningLog {
	return &ProvisioningLog{
		ID:             id,
		OrderID:        orderID,
		SubscriptionID: subscriptionID,
		Action:         action,
		Status:         status,
		AttemptNumber:  attempt,
		CreatedAt:      time.Now(),
	}
}
