// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/domain/ports/repository"
	"iptv-subscription-platform/internal/infra/metrics"
)

var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileResult reports what a reconciliation call concluded. AlreadyFinal
// means the record was terminal before this call (duplicate webhook, callback
// after webhook, double-click) and nothing was mutated.
type ReconcileResult struct {
	Reference    string
	Kind         string // 'transaction' | 'plan_change'
	Status       string
	Success      bool
	AlreadyFinal bool
}

type ReconcileUseCase interface {
	// ByReference drives a gateway reference to a terminal local state. Both
	// the webhook consumer and the callback handler call this; entry names
	// the caller for metrics only, the logic is identical.
	ByReference(ctx context.Context, entry, reference string) (*ReconcileResult, error)
	// Status is the read-only view for the client polling endpoint.
	Status(ctx context.Context, reference string) (*ReconcileResult, error)
}

// Enqueuer decouples reconciliation from the worker pool implementation.
type Enqueuer interface {
	Submit(kind string, run func(ctx context.Context) error) error
}

type reconcileUC struct {
	txns      repository.PaymentTransactionRepository
	changes   repository.PlanChangeRepository
	orders    repository.OrderRepository
	gateways  GatewayManager
	tm        repository.TransactionManager
	queue     Enqueuer
	provision ProvisioningUseCase
	planChg   PlanChangeUseCase
	notify    NotificationUseCase
	log       *zerolog.Logger
}

func NewReconcileUseCase(
	txns repository.PaymentTransactionRepository,
	changes repository.PlanChangeRepository,
	orders repository.OrderRepository,
	gateways GatewayManager,
	tm repository.TransactionManager,
	queue Enqueuer,
	provision ProvisioningUseCase,
	planChg PlanChangeUseCase,
	notify NotificationUseCase,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{
		txns:      txns,
		changes:   changes,
		orders:    orders,
		gateways:  gateways,
		tm:        tm,
		queue:     queue,
		provision: provision,
		planChg:   planChg,
		notify:    notify,
		log:       logger,
	}
}

func (u *reconcileUC) ByReference(ctx context.Context, entry, reference string) (*ReconcileResult, error) {
	// A reference belongs to either a purchase transaction or a plan change.
	txn, txnErr := u.txns.FindByReference(ctx, nil, reference)
	if txnErr == nil {
		res, err := u.reconcileTransaction(ctx, entry, txn)
		return res, err
	}
	if !errors.Is(txnErr, domain.ErrNotFound) {
		return nil, txnErr
	}

	pc, pcErr := u.changes.FindByPaymentReference(ctx, nil, reference)
	if pcErr == nil {
		return u.reconcilePlanChange(ctx, entry, pc)
	}
	if !errors.Is(pcErr, domain.ErrNotFound) {
		return nil, pcErr
	}

	// A missing record is reported, never synthesized from webhook data.
	metrics.IncReconcile(entry, "unknown_reference")
	u.log.Warn().Str("reference", reference).Str("entry", entry).Msg("reconcile: reference unknown")
	return nil, domain.ErrReferenceNotFound
}

func (u *reconcileUC) reconcileTransaction(ctx context.Context, entry string, txn *model.PaymentTransaction) (*ReconcileResult, error) {
	result := &ReconcileResult{Reference: txn.Reference, Kind: "transaction", Status: string(txn.Status)}

	// Terminal short-circuit: duplicate delivery and the webhook/callback race
	// both converge here without re-invoking the gateway.
	if txn.Status.IsTerminal() {
		result.AlreadyFinal = true
		result.Success = txn.Status == model.TransactionStatusSuccess
		metrics.IncReconcile(entry, "short_circuit")
		return result, nil
	}

	gw, err := u.gateways.Gateway(txn.Gateway)
	if err != nil {
		return nil, err
	}

	verify, verifyErr := gw.VerifyPayment(ctx, txn.Reference)
	if verifyErr != nil {
		// The record stays pending so a later pass can resolve it.
		metrics.IncReconcile(entry, "unavailable")
		u.log.Error().Err(verifyErr).
			Str("gateway", txn.Gateway).
			Str("reference", txn.Reference).
			Str("transaction_id", txn.ID).
			Msg("reconcile: verification unavailable")
		return nil, fmt.Errorf("%v: %w", verifyErr, domain.ErrVerificationUnavail)
	}

	if verify.Success {
		return u.finalizeSuccess(ctx, entry, txn, verify, result)
	}
	return u.finalizeFailure(ctx, entry, txn, verify, result)
}

func (u *reconcileUC) finalizeSuccess(ctx context.Context, entry string, txn *model.PaymentTransaction, verify *adapter.VerifyResult, result *ReconcileResult) (*ReconcileResult, error) {
	// The gateway-reported amount is authoritative for what was charged; the
	// local expected amount only feeds anomaly logging.
	if verify.ChargedMinor != 0 && verify.ChargedMinor != txn.AmountMinor {
		u.log.Warn().
			Str("reference", txn.Reference).
			Int64("expected_minor", txn.AmountMinor).
			Int64("charged_minor", verify.ChargedMinor).
			Msg("reconcile: amount mismatch, recording gateway amount")
	}

	paidAt := verify.PaidAt
	if paidAt == nil {
		now := time.Now()
		paidAt = &now
	}

	var won bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		won, err = u.txns.UpdateStatusIfPending(ctx, tx, txn.ID, model.TransactionStatusSuccess, verify.ChargedMinor, "", paidAt)
		if err != nil || !won {
			return err
		}
		if verify.AuthorizationCode != "" {
			txn.AuthorizationCode = verify.AuthorizationCode
			txn.Status = model.TransactionStatusSuccess
			txn.ChargedMinor = verify.ChargedMinor
			txn.PaidAt = paidAt
			if err := u.txns.Save(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race: the other entry point finalized first.
		result.AlreadyFinal = true
		result.Success = true
		result.Status = string(model.TransactionStatusSuccess)
		metrics.IncReconcile(entry, "short_circuit")
		return result, nil
	}

	result.Success = true
	result.Status = string(model.TransactionStatusSuccess)
	metrics.IncReconcile(entry, "success")
	metrics.IncPayment(txn.Gateway, "succeeded")
	metrics.AddPaymentRevenue(txn.Currency, verify.ChargedMinor)

	// Side effects run on the queue, after the state transition is durable.
	orderID, subID, planID := txn.OrderID, "", ""
	if order, err := u.orders.FindByID(ctx, nil, txn.OrderID); err == nil {
		subID = order.SubscriptionID
	}
	if v, ok := txn.Meta["plan_id"].(string); ok {
		planID = v
	}
	userID := txn.UserID
	if err := u.queue.Submit("provision", func(ctx context.Context) error {
		return u.provision.ProvisionOrder(ctx, orderID, subID, planID)
	}); err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Msg("reconcile: failed to enqueue provisioning")
	}
	_ = u.queue.Submit("notify", func(ctx context.Context) error {
		return u.notify.Notify(ctx, userID, model.NotificationKindPaymentSuccess, "Payment received",
			"We received your payment. Your service is being set up and you will get your credentials shortly.")
	})
	return result, nil
}

func (u *reconcileUC) finalizeFailure(ctx context.Context, entry string, txn *model.PaymentTransaction, verify *adapter.VerifyResult, result *ReconcileResult) (*ReconcileResult, error) {
	won, err := u.txns.UpdateStatusIfPending(ctx, nil, txn.ID, model.TransactionStatusFailed, 0, verify.FailureCode, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		result.AlreadyFinal = true
		metrics.IncReconcile(entry, "short_circuit")
		return result, nil
	}

	result.Status = string(model.TransactionStatusFailed)
	metrics.IncReconcile(entry, "failed")
	metrics.IncPayment(txn.Gateway, "failed")

	// Subscription and plan state are never touched on failure.
	userID := txn.UserID
	_ = u.queue.Submit("notify", func(ctx context.Context) error {
		return u.notify.Notify(ctx, userID, model.NotificationKindPaymentFailed, "Payment failed",
			fmt.Sprintf("Your payment could not be completed (%s). No charge was applied.", verify.FailureMessage))
	})
	return result, nil
}

func (u *reconcileUC) reconcilePlanChange(ctx context.Context, entry string, pc *model.PlanChange) (*ReconcileResult, error) {
	result := &ReconcileResult{Reference: pc.PaymentReference, Kind: "plan_change", Status: string(pc.Status)}

	if pc.Status.IsTerminal() {
		result.AlreadyFinal = true
		result.Success = pc.Status == model.PlanChangeStatusCompleted
		metrics.IncReconcile(entry, "short_circuit")
		return result, nil
	}

	gw, err := u.gateways.Gateway(pc.Gateway)
	if err != nil {
		return nil, err
	}

	verify, verifyErr := gw.VerifyPayment(ctx, pc.PaymentReference)
	if verifyErr != nil {
		metrics.IncReconcile(entry, "unavailable")
		u.log.Error().Err(verifyErr).
			Str("gateway", pc.Gateway).
			Str("reference", pc.PaymentReference).
			Str("plan_change_id", pc.ID).
			Msg("reconcile: verification unavailable")
		return nil, fmt.Errorf("%v: %w", verifyErr, domain.ErrVerificationUnavail)
	}

	now := time.Now()
	if !verify.Success {
		won, err := u.changes.CompleteIfPending(ctx, nil, pc.ID, model.PlanChangeStatusFailed, verify.FailureMessage, &now)
		if err != nil {
			return nil, err
		}
		if !won {
			result.AlreadyFinal = true
			metrics.IncReconcile(entry, "short_circuit")
			return result, nil
		}
		result.Status = string(model.PlanChangeStatusFailed)
		metrics.IncReconcile(entry, "failed")
		userID := pc.UserID
		_ = u.queue.Submit("notify", func(ctx context.Context) error {
			return u.notify.Notify(ctx, userID, model.NotificationKindPaymentFailed, "Upgrade payment failed",
				"Your upgrade payment could not be completed. Your current plan is unchanged.")
		})
		return result, nil
	}

	var won bool
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		won, err = u.changes.CompleteIfPending(ctx, tx, pc.ID, model.PlanChangeStatusCompleted, "", &now)
		if err != nil || !won {
			return err
		}
		return u.planChg.Apply(ctx, tx, pc)
	})
	if err != nil {
		return nil, err
	}
	if !won {
		result.AlreadyFinal = true
		result.Success = true
		result.Status = string(model.PlanChangeStatusCompleted)
		metrics.IncReconcile(entry, "short_circuit")
		return result, nil
	}

	result.Success = true
	result.Status = string(model.PlanChangeStatusCompleted)
	metrics.IncReconcile(entry, "success")

	userID := pc.UserID
	_ = u.queue.Submit("notify", func(ctx context.Context) error {
		return u.notify.Notify(ctx, userID, model.NotificationKindPlanChanged, "Plan upgraded",
			"Your upgrade payment was received and your new plan is active.")
	})
	return result, nil
}

func (u *reconcileUC) Status(ctx context.Context, reference string) (*ReconcileResult, error) {
	txn, err := u.txns.FindByReference(ctx, nil, reference)
	if err == nil {
		return &ReconcileResult{
			Reference:    reference,
			Kind:         "transaction",
			Status:       string(txn.Status),
			Success:      txn.Status == model.TransactionStatusSuccess,
			AlreadyFinal: txn.Status.IsTerminal(),
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	pc, err := u.changes.FindByPaymentReference(ctx, nil, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, err
	}
	return &ReconcileResult{
		Reference:    reference,
		Kind:         "plan_change",
		Status:       string(pc.Status),
		Success:      pc.Status == model.PlanChangeStatusCompleted,
		AlreadyFinal: pc.Status.IsTerminal(),
	}, nil
}
