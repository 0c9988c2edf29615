//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"iptv-subscription-platform/internal/domain"
)

func testPlan(days int) *Plan {
	return &Plan{ID: "plan-1", Name: "Premium", PackageCode: "PREM", DurationDays: days, Connections: 2, PriceMinor: 5000, Currency: "USD", Active: true}
}

func TestNewSubscription(t *testing.T) {
	t.Run("starts pending without expiry", func(t *testing.T) {
		sub, err := NewSubscription("sub-1", "user-1", "plan-1")
		if err != nil {
			t.Fatalf("NewSubscription: %v", err)
		}
		if sub.Status != SubscriptionStatusPending {
			t.Errorf("Status = %s, want pending", sub.Status)
		}
		if sub.ExpiresAt != nil {
			t.Errorf("ExpiresAt must be unset before provisioning")
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		if _, err := NewSubscription("", "user-1", "plan-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
		if _, err := NewSubscription("sub-1", "user-1", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSubscriptionActivate(t *testing.T) {
	sub, _ := NewSubscription("sub-1", "user-1", "plan-1")

	if err := sub.Activate(testPlan(30)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if sub.Status != SubscriptionStatusActive {
		t.Errorf("Status = %s, want active", sub.Status)
	}
	want := time.Now().Add(30 * 24 * time.Hour)
	if sub.ExpiresAt == nil || sub.ExpiresAt.Before(want.Add(-time.Minute)) || sub.ExpiresAt.After(want.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", sub.ExpiresAt, want)
	}

	if err := sub.Activate(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Activate(nil) = %v, want ErrInvalidArgument", err)
	}
}

func TestSubscriptionExtend(t *testing.T) {
	t.Run("live subscription extends from current expiry", func(t *testing.T) {
		sub, _ := NewSubscription("sub-1", "user-1", "plan-1")
		cur := time.Now().Add(10 * 24 * time.Hour)
		sub.Status = SubscriptionStatusActive
		sub.ExpiresAt = &cur

		if err := sub.Extend(testPlan(30)); err != nil {
			t.Fatalf("Extend: %v", err)
		}
		want := cur.Add(30 * 24 * time.Hour)
		if !sub.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", sub.ExpiresAt, want)
		}
	})

	t.Run("lapsed subscription extends from now", func(t *testing.T) {
		sub, _ := NewSubscription("sub-1", "user-1", "plan-1")
		past := time.Now().Add(-5 * 24 * time.Hour)
		sub.Status = SubscriptionStatusExpired
		sub.ExpiresAt = &past

		if err := sub.Extend(testPlan(30)); err != nil {
			t.Fatalf("Extend: %v", err)
		}
		if sub.Status != SubscriptionStatusActive {
			t.Errorf("Status = %s, want active after extend", sub.Status)
		}
		want := time.Now().Add(30 * 24 * time.Hour)
		if sub.ExpiresAt.Before(want.Add(-time.Minute)) || sub.ExpiresAt.After(want.Add(time.Minute)) {
			t.Errorf("ExpiresAt = %v, want ~%v (no credit for lapsed days)", sub.ExpiresAt, want)
		}
	})
}

func TestSubscriptionRemaining(t *testing.T) {
	now := time.Now()
	sub, _ := NewSubscription("sub-1", "user-1", "plan-1")

	if got := sub.Remaining(now); got != 0 {
		t.Errorf("Remaining with no expiry = %v, want 0", got)
	}

	future := now.Add(48 * time.Hour)
	sub.ExpiresAt = &future
	if got := sub.Remaining(now); got != 48*time.Hour {
		t.Errorf("Remaining = %v, want 48h", got)
	}

	past := now.Add(-time.Hour)
	sub.ExpiresAt = &past
	if got := sub.Remaining(now); got != 0 {
		t.Errorf("Remaining past expiry = %v, want 0", got)
	}
}
