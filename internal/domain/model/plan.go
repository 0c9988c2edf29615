package model

import (
	"time"

	"iptv-subscription-platform/internal/domain"
)

// Plan is a purchasable IPTV package: a fixed duration, a price in minor
// currency units, and the panel package code used when provisioning.
type Plan struct {
	ID           string
	Name         string
	PackageCode  string // my8k panel package identifier
	DurationDays int
	Connections  int
	PriceMinor   int64 // smallest currency unit (kobo, cents)
	Currency     string
	WooProductID int64 // linked WooCommerce product, 0 when unlinked
	Active       bool
	CreatedAt    time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name, packageCode string, durationDays, connections int, priceMinor int64, currency string) (*Plan, error) {
	if id == "" || name == "" || packageCode == "" || durationDays <= 0 || priceMinor <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if connections <= 0 {
		connections = 1
	}
	return &Plan{
		ID:           id,
		Name:         name,
		PackageCode:  packageCode,
		DurationDays: durationDays,
		Connections:  connections,
		PriceMinor:   priceMinor,
		Currency:     currency,
		Active:       true,
		CreatedAt:    time.Now(),
	}, nil
}
