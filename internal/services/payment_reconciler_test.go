package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
)

// fakeGateway stands in for a real provider adapter: the payload is the
// JSON-encoded CallbackResult itself, and verification succeeds unless the
// payload carries "tampered": true.
type fakeGateway struct{}

func (fakeGateway) Name() string { return "fakepay" }

func (fakeGateway) Verify(raw []byte) (*CallbackResult, error) {
	var payload struct {
		CallbackResult
		Tampered bool `json:"tampered"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Tampered {
		return nil, errors.New("signature mismatch")
	}
	return &payload.CallbackResult, nil
}

func fakeCallback(t *testing.T, result CallbackResult) []byte {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	return raw
}

func placeTestOrder(t *testing.T, db *gorm.DB, method string) *models.Order {
	t.Helper()

	svc := newCheckout(db)
	userID := uuid.New()
	book := createBook(t, db, "Anatomy Atlas", 100000, 40000, 5)
	addCartLine(t, db, userID, book, models.VariantColor, 2)

	input := codInput()
	input.PaymentMethod = method
	order, err := svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)
	return order
}

func transactionRows(t *testing.T, db *gorm.DB) []models.PaymentTransaction {
	t.Helper()

	var rows []models.PaymentTransaction
	require.NoError(t, db.Order("created_at asc").Find(&rows).Error)
	return rows
}

func TestReconcileCompletesPendingOrder(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodMoMo)

	raw := fakeCallback(t, CallbackResult{
		Success:        true,
		ProviderTxnRef: "txn-001",
		OrderRef:       order.OrderNumber,
		Amount:         order.TotalAmount,
	})
	result, err := rec.Reconcile(context.Background(), "fakepay", raw)
	require.NoError(t, err)
	assert.Equal(t, models.CallbackOutcomeApplied, result.Outcome)
	assert.Equal(t, models.OrderStatusCompleted, result.Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, reloaded.Status)

	rows := transactionRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CallbackOutcomeApplied, rows[0].Outcome)
	assert.Equal(t, "txn-001", rows[0].ProviderTxnRef)
	require.NotNil(t, rows[0].OrderID)
	assert.Equal(t, order.ID, *rows[0].OrderID)
}

func TestReconcileFailsPendingOrderWithoutRestocking(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodVNPay)

	raw := fakeCallback(t, CallbackResult{
		Success:     false,
		OrderRef:    order.OrderNumber,
		Amount:      order.TotalAmount,
		FailureCode: "24",
	})
	result, err := rec.Reconcile(context.Background(), "fakepay", raw)
	require.NoError(t, err)
	assert.Equal(t, models.CallbackOutcomeApplied, result.Outcome)
	assert.Equal(t, models.OrderStatusFailed, result.Status)

	// A failed payment keeps the reservation; releasing copies is a separate
	// back-office cancellation.
	var book models.Book
	require.NoError(t, db.First(&book).Error)
	assert.Equal(t, 3, book.AvailableCopies)
}

func TestReconcileRedeliveryIsNoOp(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodMoMo)

	raw := fakeCallback(t, CallbackResult{
		Success:  true,
		OrderRef: order.OrderNumber,
		Amount:   order.TotalAmount,
	})

	first, err := rec.Reconcile(context.Background(), "fakepay", raw)
	require.NoError(t, err)
	assert.Equal(t, models.CallbackOutcomeApplied, first.Outcome)

	second, err := rec.Reconcile(context.Background(), "fakepay", raw)
	require.NoError(t, err)
	assert.Equal(t, models.CallbackOutcomeDuplicate, second.Outcome)
	assert.Equal(t, models.OrderStatusCompleted, second.Status)

	rows := transactionRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CallbackOutcomeDuplicate, rows[1].Outcome)
}

func TestReconcileConflictingOutcomeIsRejected(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodMoMo)

	success := fakeCallback(t, CallbackResult{
		Success:  true,
		OrderRef: order.OrderNumber,
		Amount:   order.TotalAmount,
	})
	_, err := rec.Reconcile(context.Background(), "fakepay", success)
	require.NoError(t, err)

	failure := fakeCallback(t, CallbackResult{
		Success:     false,
		OrderRef:    order.OrderNumber,
		Amount:      order.TotalAmount,
		FailureCode: "09",
	})
	_, err = rec.Reconcile(context.Background(), "fakepay", failure)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindReconciliation, se.Kind)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, reloaded.Status, "conflicting callback must not touch the order")

	rows := transactionRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CallbackOutcomeConflict, rows[1].Outcome)
}

func TestReconcileOrphanReference(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})

	raw := fakeCallback(t, CallbackResult{
		Success:  true,
		OrderRef: "MB-20260101-DEADBEEF",
		Amount:   100000,
	})
	_, err := rec.Reconcile(context.Background(), "fakepay", raw)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindReconciliation, se.Kind)

	rows := transactionRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CallbackOutcomeOrphan, rows[0].Outcome)
	assert.Nil(t, rows[0].OrderID)
}

func TestReconcileAmountMismatch(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodMoMo)

	raw := fakeCallback(t, CallbackResult{
		Success:  true,
		OrderRef: order.OrderNumber,
		Amount:   order.TotalAmount - 1000,
	})
	_, err := rec.Reconcile(context.Background(), "fakepay", raw)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindReconciliation, se.Kind)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, reloaded.Status)

	rows := transactionRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CallbackOutcomeConflict, rows[0].Outcome)
}

func TestReconcileRejectsBadSignature(t *testing.T) {
	db := newTestDB(t)
	rec := NewPaymentReconciler(db, nil, fakeGateway{})
	order := placeTestOrder(t, db, models.PaymentMethodMoMo)

	raw := []byte(`{"Success":true,"OrderRef":"` + order.OrderNumber + `","tampered":true}`)
	_, err := rec.Reconcile(context.Background(), "fakepay", raw)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindReconciliation, se.Kind)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, reloaded.Status)

	rows := transactionRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CallbackOutcomeRejected, rows[0].Outcome)
}

func TestReconcileUnknownProvider(t *testing.T) {
	rec := NewPaymentReconciler(newTestDB(t), nil, fakeGateway{})

	_, err := rec.Reconcile(context.Background(), "nopay", []byte(`{}`))
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindValidation, se.Kind)
}
