package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

type ServiceAccountStatus string

const (
	ServiceAccountStatusActive    ServiceAccountStatus = "active"
	ServiceAccountStatusSuspended ServiceAccountStatus = "suspended"
	ServiceAccountStatusExpired   ServiceAccountStatus = "expired"
)

// ServiceAccount holds the credentials issued by the upstream IPTV panel for
// one subscription. Created exclusively by the provisioning job; credentials
// are write-once.
type ServiceAccount struct {
	ID             string
	SubscriptionID string
	UserID         string
	UpstreamID     string // account id on the upstream panel, when reported
	Username       string
	Password       string
	M3UURL         string
	ServerURL      string // host:port of the streaming server
	PackageCode    string
	Connections    int
	Status         ServiceAccountStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewServiceAccount(id, subscriptionID, userID, username, password string) (*ServiceAccount, error) {
	if id == "" || subscriptionID == "" || username == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ServiceAccount{
		ID:             id,
		SubscriptionID: subscriptionID,
		UserID:         userID,
		Username:       username,
		Password:       password,
		Status:         ServiceAccountStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
