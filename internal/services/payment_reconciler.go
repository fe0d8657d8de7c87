package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
)

// CallbackResult is the normalized shape every provider adapter produces.
// The reconciler consumes only this, never provider-specific fields.
type CallbackResult struct {
	Success        bool
	ProviderTxnRef string
	OrderRef       string
	Amount         int64
	FailureCode    string
}

// ProviderAdapter verifies a raw provider callback payload and normalizes it.
// Verify must reject payloads whose signature does not check out.
type ProviderAdapter interface {
	Name() string
	Verify(raw []byte) (*CallbackResult, error)
}

// ReconcileResult reports what a callback did to the order.
type ReconcileResult struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Outcome     string `json:"outcome"`
}

// PaymentReconciler maps provider callbacks onto internal orders and applies
// the PENDING→COMPLETED / PENDING→FAILED transition exactly once. Inventory
// and coupon effects happened at order-creation time; a callback only ever
// touches order status.
type PaymentReconciler struct {
	db       *gorm.DB
	adapters map[string]ProviderAdapter
	telegram *TelegramService
}

// NewPaymentReconciler constructs PaymentReconciler with the given adapters.
func NewPaymentReconciler(db *gorm.DB, telegram *TelegramService, adapters ...ProviderAdapter) *PaymentReconciler {
	m := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &PaymentReconciler{db: db, adapters: m, telegram: telegram}
}

// Adapter returns the adapter registered under name, if any.
func (r *PaymentReconciler) Adapter(name string) (ProviderAdapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Reconcile verifies a raw callback and transitions the matching order.
// Redelivery of an already-applied callback with the same outcome is a no-op.
// Every attempt, including rejected ones, is logged to payment_transactions.
func (r *PaymentReconciler) Reconcile(ctx context.Context, provider string, raw []byte) (*ReconcileResult, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, validationError("unknown payment provider")
	}

	result, err := adapter.Verify(raw)
	if err != nil {
		r.logAttempt(ctx, provider, raw, nil, nil, models.CallbackOutcomeRejected, err.Error())
		return nil, reconciliationError("callback verification failed", err)
	}

	target := models.OrderStatusCompleted
	if !result.Success {
		target = models.OrderStatusFailed
	}

	var out ReconcileResult
	var completed *models.Order

	// Audit rows for attempts that fail the transaction are captured here and
	// written after the rollback, otherwise they would be discarded with it.
	var failedOrder *models.Order
	var failedOutcome, failedDetail string

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_number = ?", result.OrderRef).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failedOutcome, failedDetail = models.CallbackOutcomeOrphan, "no order for reference"
				return reconciliationError("no order for callback reference", nil)
			}
			return storageError(err)
		}

		if result.Amount > 0 && result.Amount != order.TotalAmount {
			failedOrder = &order
			failedOutcome = models.CallbackOutcomeConflict
			failedDetail = fmt.Sprintf("amount %d does not match order total %d", result.Amount, order.TotalAmount)
			return reconciliationError("callback amount does not match order total", nil)
		}

		// The status check lives inside the UPDATE so a concurrent redelivery
		// cannot apply the transition twice.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", target)
		if res.Error != nil {
			return storageError(res.Error)
		}

		if res.RowsAffected == 1 {
			r.logAttemptTx(tx, provider, raw, result, &order, models.CallbackOutcomeApplied, "")
			out = ReconcileResult{
				OrderID:     order.ID.String(),
				OrderNumber: order.OrderNumber,
				Status:      target,
				Outcome:     models.CallbackOutcomeApplied,
			}
			if target == models.OrderStatusCompleted {
				order.Status = target
				completed = &order
			}
			return nil
		}

		// Not PENDING anymore: re-read to tell redelivery from conflict.
		var current models.Order
		if err := tx.First(&current, "id = ?", order.ID).Error; err != nil {
			return storageError(err)
		}

		if current.Status == target {
			r.logAttemptTx(tx, provider, raw, result, &order, models.CallbackOutcomeDuplicate, "")
			out = ReconcileResult{
				OrderID:     order.ID.String(),
				OrderNumber: order.OrderNumber,
				Status:      current.Status,
				Outcome:     models.CallbackOutcomeDuplicate,
			}
			return nil
		}

		failedOrder = &order
		failedOutcome = models.CallbackOutcomeConflict
		failedDetail = fmt.Sprintf("callback wants %s but order is %s", target, current.Status)
		return reconciliationError("callback conflicts with current order status", nil)
	})
	if err != nil {
		if failedOutcome != "" {
			r.logAttempt(ctx, provider, raw, result, failedOrder, failedOutcome, failedDetail)
		}
		if se, ok := AsServiceError(err); ok && se.Kind == ErrKindReconciliation {
			log.Printf("[Payments] %s callback for %q left unapplied: %v", provider, result.OrderRef, se)
		}
		return nil, err
	}

	if completed != nil && r.telegram != nil {
		go r.telegram.NotifyPaymentSuccess(completed.OrderNumber, provider, completed.TotalAmount)
	}

	return &out, nil
}

func (r *PaymentReconciler) logAttempt(ctx context.Context, provider string, raw []byte, result *CallbackResult, order *models.Order, outcome, detail string) {
	r.logAttemptTx(r.db.WithContext(ctx), provider, raw, result, order, outcome, detail)
}

// logAttemptTx writes the audit row on the given handle. Inside Reconcile's
// transaction the row commits together with the status change; for rejected
// payloads it is written directly.
func (r *PaymentReconciler) logAttemptTx(tx *gorm.DB, provider string, raw []byte, result *CallbackResult, order *models.Order, outcome, detail string) {
	row := models.PaymentTransaction{
		Provider:   provider,
		Outcome:    outcome,
		Detail:     detail,
		RawPayload: raw,
	}
	if result != nil {
		row.ProviderTxnRef = result.ProviderTxnRef
		row.OrderRef = result.OrderRef
		row.Amount = result.Amount
		row.Success = result.Success
	}
	if order != nil {
		row.OrderID = &order.ID
	}

	if err := tx.Create(&row).Error; err != nil {
		log.Printf("[Payments] failed to log %s callback attempt: %v", provider, err)
	}
}
