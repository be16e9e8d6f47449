package services

import (
	"testing"
	"time"

	"checkout-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		Method:  models.MethodPix,
		Status:  models.PaymentProcessing,
		Amount:  10000,
	}
}

func TestReconcilePaid(t *testing.T) {
	now := time.Now().UTC()
	paidAt := now.Add(-2 * time.Minute)

	decision := Reconcile(pendingPayment(), ProviderOutcome{
		Status:        "paid",
		TransactionID: "tx-123",
		PaymentMethod: "pix",
		PaidAt:        &paidAt,
	}, now)

	require.True(t, decision.Processed)
	require.True(t, decision.NeedsWrite())
	assert.False(t, decision.Failed)
	assert.Equal(t, models.PaymentCompleted, decision.PaymentUpdates["status"])
	assert.Equal(t, "tx-123", decision.PaymentUpdates["transaction_id"])
	assert.Equal(t, "pix", decision.PaymentUpdates["payment_method_used"])
	assert.Equal(t, paidAt, decision.PaymentUpdates["paid_at"])
	require.NotNil(t, decision.OrderStatus)
	assert.Equal(t, models.OrderConfirmed, *decision.OrderStatus)
}

func TestReconcileApprovedWithoutPaidAtUsesNow(t *testing.T) {
	now := time.Now().UTC()

	decision := Reconcile(pendingPayment(), ProviderOutcome{
		Status:        "approved",
		TransactionID: "tx-456",
	}, now)

	require.True(t, decision.Processed)
	assert.Equal(t, now, decision.PaymentUpdates["paid_at"])
}

func TestReconcileIdempotentReplay(t *testing.T) {
	txID := "tx-123"
	payment := pendingPayment()
	payment.Status = models.PaymentCompleted
	payment.TransactionID = &txID

	decision := Reconcile(payment, ProviderOutcome{
		Status:        "paid",
		TransactionID: "tx-123",
	}, time.Now().UTC())

	assert.True(t, decision.Processed)
	assert.True(t, decision.AlreadyProcessed)
	assert.False(t, decision.NeedsWrite())
}

func TestReconcileCompletedIsTerminal(t *testing.T) {
	txID := "tx-123"

	// Any later outcome, including failed, must not touch a completed payment.
	for _, status := range []string{"failed", "rejected", "paid", "pending"} {
		payment := pendingPayment()
		payment.Status = models.PaymentCompleted
		payment.TransactionID = &txID

		decision := Reconcile(payment, ProviderOutcome{
			Status:        status,
			TransactionID: "tx-other",
		}, time.Now().UTC())

		assert.False(t, decision.Processed, "status %q", status)
		assert.False(t, decision.NeedsWrite(), "status %q", status)
		assert.Equal(t, "payment_already_completed", decision.Reason, "status %q", status)
	}
}

func TestReconcileFailedKeepsOrder(t *testing.T) {
	decision := Reconcile(pendingPayment(), ProviderOutcome{
		Status:        "rejected",
		TransactionID: "tx-789",
	}, time.Now().UTC())

	require.True(t, decision.Processed)
	assert.True(t, decision.Failed)
	assert.Equal(t, models.PaymentFailed, decision.PaymentUpdates["status"])
	assert.Nil(t, decision.OrderStatus)
}

func TestReconcileUnknownStatus(t *testing.T) {
	decision := Reconcile(pendingPayment(), ProviderOutcome{Status: "chargeback"}, time.Now().UTC())

	assert.False(t, decision.Processed)
	assert.False(t, decision.NeedsWrite())
	assert.Equal(t, "unknown_status", decision.Reason)
}
