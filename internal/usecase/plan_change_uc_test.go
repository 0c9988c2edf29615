//go:build !integration

// File: internal/usecase/plan_change_uc_test.go
package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/usecase"
)

type planChangeDeps struct {
	changes  *MockPlanChangeRepo
	subs     *MockSubRepo
	plans    *MockPlanRepo
	users    *MockUserRepo
	txns     *MockTxnRepo
	gateway  *MockGateway
	gateways *MockGatewayManager
	tm       *MockTxManager
	notify   *MockNotifyUC
}

func newPlanChangeUC(t *testing.T) (usecase.PlanChangeUseCase, *planChangeDeps) {
	t.Helper()
	d := &planChangeDeps{
		changes: NewMockPlanChangeRepo(),
		subs:    NewMockSubRepo(),
		plans:   NewMockPlanRepo(),
		users:   NewMockUserRepo(),
		txns:    NewMockTxnRepo(),
		gateway: NewMockGateway("paystack"),
		tm:      NewMockTxManager(),
		notify:  &MockNotifyUC{},
	}
	d.gateways = NewMockGatewayManager(d.gateway)
	callback := func(gatewayID string) string { return "https://shop.example/checkout/callback/" + gatewayID }
	uc := usecase.NewPlanChangeUseCase(d.changes, d.subs, d.plans, d.users, d.txns, d.gateways, d.tm, d.notify, callback, newTestLogger())
	return uc, d
}

// seedActivePlans creates a basic and a premium plan plus an active
// subscription on the basic plan with half the period remaining.
func seedActivePlans(t *testing.T, d *planChangeDeps) (*model.Subscription, *model.Plan, *model.Plan) {
	t.Helper()
	ctx := context.Background()
	basic, err := model.NewPlan("plan-basic", "Basic", "BAS30", 30, 1, 3000, "USD")
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	premium, err := model.NewPlan("plan-premium", "Premium", "PREM30", 30, 3, 6000, "USD")
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if err := d.plans.Save(ctx, basic); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := d.plans.Save(ctx, premium); err != nil {
		t.Fatalf("seed: %v", err)
	}

	user := &model.User{ID: "user-1", Email: "viewer@example.com"}
	if err := d.users.Save(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	sub, err := model.NewSubscription("sub-1", "user-1", basic.ID)
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	sub.Status = model.SubscriptionStatusActive
	exp := time.Now().Add(15 * 24 * time.Hour)
	sub.ExpiresAt = &exp
	if err := d.subs.Save(ctx, nil, sub); err != nil {
		t.Fatalf("seed sub: %v", err)
	}
	return sub, basic, premium
}

func TestRequestUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("prorates the difference and opens a payment session", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)

		// Act
		pc, url, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", "paystack")

		// Assert
		if err != nil {
			t.Fatalf("RequestUpgrade: %v", err)
		}
		if url == "" {
			t.Errorf("no payment URL returned")
		}
		if pc.Type != model.PlanChangeUpgrade || pc.Status != model.PlanChangeStatusPending {
			t.Errorf("unexpected change %+v", pc)
		}
		// 14 full days remain of 30: credit 3000*14/30=1400, full 6000*14/30=2800.
		if pc.ProrationMinor != 1400 || pc.CreditMinor != 1400 {
			t.Errorf("proration = %d credit = %d, want 1400/1400", pc.ProrationMinor, pc.CreditMinor)
		}
		if pc.PaymentReference == "" || pc.Gateway != "paystack" {
			t.Errorf("payment session not recorded: %+v", pc)
		}
	})

	t.Run("downgrade-priced target is rejected", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, _, premium := seedActivePlans(t, d)
		sub.PlanID = premium.ID
		if err := d.subs.Save(ctx, nil, sub); err != nil {
			t.Fatalf("seed: %v", err)
		}

		// Act
		_, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-basic", "")

		// Assert
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("a second pending change is rejected", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)
		if _, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", ""); err != nil {
			t.Fatalf("first request: %v", err)
		}

		// Act
		_, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", "")

		// Assert
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestRequestDowngrade(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules at the period boundary without payment", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, _, premium := seedActivePlans(t, d)
		sub.PlanID = premium.ID
		if err := d.subs.Save(ctx, nil, sub); err != nil {
			t.Fatalf("seed: %v", err)
		}

		// Act
		pc, err := uc.RequestDowngrade(ctx, "user-1", "plan-basic")

		// Assert
		if err != nil {
			t.Fatalf("RequestDowngrade: %v", err)
		}
		if pc.Type != model.PlanChangeDowngrade {
			t.Errorf("type = %s, want downgrade", pc.Type)
		}
		if pc.ScheduledAt == nil || !pc.ScheduledAt.Equal(*sub.ExpiresAt) {
			t.Errorf("scheduled at %v, want period boundary %v", pc.ScheduledAt, sub.ExpiresAt)
		}
		if pc.PaymentReference != "" {
			t.Errorf("downgrades must not open payment sessions")
		}
		if d.gateway.VerifyCalls != 0 {
			t.Errorf("gateway must not be involved in downgrades")
		}
	})

	t.Run("upgrade-priced target is rejected", func(t *testing.T) {
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)
		if _, err := uc.RequestDowngrade(ctx, "user-1", "plan-premium"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlanChangeCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending change cancels", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)
		pc, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", "")
		if err != nil {
			t.Fatalf("seed change: %v", err)
		}

		// Act
		if err := uc.Cancel(ctx, "user-1", pc.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}

		// Assert
		stored, _ := d.changes.FindByID(ctx, nil, pc.ID)
		if stored.Status != model.PlanChangeStatusCancelled {
			t.Errorf("status = %s, want cancelled", stored.Status)
		}
	})

	t.Run("another user's change reads as not found", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)
		pc, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", "")
		if err != nil {
			t.Fatalf("seed change: %v", err)
		}

		// Act
		err = uc.Cancel(ctx, "intruder", pc.ID)

		// Assert
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		stored, _ := d.changes.FindByID(ctx, nil, pc.ID)
		if stored.Status != model.PlanChangeStatusPending {
			t.Errorf("foreign cancel mutated the change: %s", stored.Status)
		}
	})

	t.Run("terminal change cannot be cancelled", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		seedActivePlans(t, d)
		pc, _, err := uc.RequestUpgrade(ctx, "user-1", "plan-premium", "")
		if err != nil {
			t.Fatalf("seed change: %v", err)
		}
		now := time.Now()
		if _, err := d.changes.CompleteIfPending(ctx, nil, pc.ID, model.PlanChangeStatusCompleted, "", &now); err != nil {
			t.Fatalf("finalize: %v", err)
		}

		// Act + Assert
		if err := uc.Cancel(ctx, "user-1", pc.ID); err == nil {
			t.Fatalf("expected error cancelling a completed change")
		}
	})
}

func TestPlanChangeApply(t *testing.T) {
	ctx := context.Background()

	t.Run("upgrade keeps the current expiry", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, basic, premium := seedActivePlans(t, d)
		before := *sub.ExpiresAt
		pc, err := model.NewPlanChange("chg-1", "user-1", sub.ID, basic.ID, premium.ID, model.PlanChangeUpgrade)
		if err != nil {
			t.Fatalf("NewPlanChange: %v", err)
		}

		// Act
		if err := uc.Apply(ctx, nil, pc); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		// Assert
		after, _ := d.subs.FindByID(ctx, nil, sub.ID)
		if after.PlanID != premium.ID {
			t.Errorf("plan = %s, want premium", after.PlanID)
		}
		if !after.ExpiresAt.Equal(before) {
			t.Errorf("upgrade must keep the paid-for expiry, got %v", after.ExpiresAt)
		}
	})

	t.Run("downgrade starts a fresh period on the new plan", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, basic, premium := seedActivePlans(t, d)
		sub.PlanID = premium.ID
		if err := d.subs.Save(ctx, nil, sub); err != nil {
			t.Fatalf("seed: %v", err)
		}
		pc, err := model.NewPlanChange("chg-1", "user-1", sub.ID, premium.ID, basic.ID, model.PlanChangeDowngrade)
		if err != nil {
			t.Fatalf("NewPlanChange: %v", err)
		}

		// Act
		if err := uc.Apply(ctx, nil, pc); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		// Assert
		after, _ := d.subs.FindByID(ctx, nil, sub.ID)
		if after.PlanID != basic.ID {
			t.Errorf("plan = %s, want basic", after.PlanID)
		}
		wantExp := time.Now().Add(30 * 24 * time.Hour)
		if after.ExpiresAt.Before(wantExp.Add(-time.Minute)) || after.ExpiresAt.After(wantExp.Add(time.Minute)) {
			t.Errorf("downgrade expiry %v, want ~%v", after.ExpiresAt, wantExp)
		}
	})
}

func TestExecuteDue(t *testing.T) {
	ctx := context.Background()

	t.Run("applies scheduled downgrades whose time has come", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, basic, premium := seedActivePlans(t, d)
		sub.PlanID = premium.ID
		past := time.Now().Add(-time.Hour)
		sub.ExpiresAt = &past
		if err := d.subs.Save(ctx, nil, sub); err != nil {
			t.Fatalf("seed: %v", err)
		}
		pc, err := model.NewPlanChange("chg-due", "user-1", sub.ID, premium.ID, basic.ID, model.PlanChangeDowngrade)
		if err != nil {
			t.Fatalf("NewPlanChange: %v", err)
		}
		pc.ScheduledAt = &past
		if err := d.changes.Save(ctx, nil, pc); err != nil {
			t.Fatalf("seed change: %v", err)
		}

		// Act
		n, err := uc.ExecuteDue(ctx, time.Now())

		// Assert
		if err != nil {
			t.Fatalf("ExecuteDue: %v", err)
		}
		if n != 1 {
			t.Errorf("applied %d changes, want 1", n)
		}
		stored, _ := d.changes.FindByID(ctx, nil, "chg-due")
		if stored.Status != model.PlanChangeStatusCompleted {
			t.Errorf("status = %s, want completed", stored.Status)
		}
		after, _ := d.subs.FindByID(ctx, nil, sub.ID)
		if after.PlanID != basic.ID {
			t.Errorf("subscription still on %s", after.PlanID)
		}
	})

	t.Run("future schedules are left alone", func(t *testing.T) {
		// Arrange
		uc, d := newPlanChangeUC(t)
		sub, basic, premium := seedActivePlans(t, d)
		pc, err := model.NewPlanChange("chg-later", "user-1", sub.ID, premium.ID, basic.ID, model.PlanChangeDowngrade)
		if err != nil {
			t.Fatalf("NewPlanChange: %v", err)
		}
		future := time.Now().Add(24 * time.Hour)
		pc.ScheduledAt = &future
		if err := d.changes.Save(ctx, nil, pc); err != nil {
			t.Fatalf("seed change: %v", err)
		}

		// Act
		n, err := uc.ExecuteDue(ctx, time.Now())

		// Assert
		if err != nil || n != 0 {
			t.Fatalf("n=%d err=%v, want 0/nil", n, err)
		}
		stored, _ := d.changes.FindByID(ctx, nil, "chg-later")
		if stored.Status != model.PlanChangeStatusPending {
			t.Errorf("future change mutated: %s", stored.Status)
		}
	})
}
