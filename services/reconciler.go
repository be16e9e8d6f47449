package services

import (
	"time"

	"checkout-service/models"

	"gorm.io/datatypes"
)

// ProviderOutcome is a payment outcome reported by the provider, either
// pushed through the webhook or pulled by the status poll. Both front doors
// reduce their payloads to this shape before reconciling.
type ProviderOutcome struct {
	Status        string
	TransactionID string
	PaymentMethod string
	Amount        int64
	PaidAt        *time.Time
}

// ReconcileDecision says what, if anything, must be written for a payment
// given a provider outcome.
type ReconcileDecision struct {
	Processed        bool
	AlreadyProcessed bool
	Failed           bool
	Reason           string

	PaymentUpdates map[string]interface{}
	// OrderStatus is the order transition to apply alongside the payment
	// update, or nil when the order is left alone.
	OrderStatus *models.OrderStatus
}

// NeedsWrite reports whether the decision carries any store writes.
func (d ReconcileDecision) NeedsWrite() bool {
	return len(d.PaymentUpdates) > 0
}

// Reconcile decides the next payment and order state for a provider-reported
// outcome. It is a pure function shared by the webhook receiver and the
// verify-status endpoint; both at-least-once delivery and the race between
// the two paths rely on it being idempotent.
func Reconcile(payment *models.Payment, outcome ProviderOutcome, now time.Time) ReconcileDecision {
	// completed is terminal: replays of the confirming notification are
	// acknowledged, everything else is ignored.
	if payment.Status == models.PaymentCompleted {
		if payment.TransactionID != nil && outcome.TransactionID != "" && *payment.TransactionID == outcome.TransactionID {
			return ReconcileDecision{Processed: true, AlreadyProcessed: true}
		}
		return ReconcileDecision{Processed: false, Reason: "payment_already_completed"}
	}

	switch outcome.Status {
	case "paid", "approved":
		paidAt := now
		if outcome.PaidAt != nil {
			paidAt = *outcome.PaidAt
		}
		confirmed := models.OrderConfirmed
		return ReconcileDecision{
			Processed: true,
			PaymentUpdates: map[string]interface{}{
				"status":              models.PaymentCompleted,
				"transaction_id":      outcome.TransactionID,
				"payment_method_used": outcome.PaymentMethod,
				"paid_at":             paidAt,
			},
			OrderStatus: &confirmed,
		}

	case "failed", "rejected":
		// A failed attempt does not cancel the order; it may be retried with
		// a new payment.
		return ReconcileDecision{
			Processed: true,
			Failed:    true,
			PaymentUpdates: map[string]interface{}{
				"status":   models.PaymentFailed,
				"metadata": datatypes.JSONMap{"failure_reason": outcome.Status},
			},
		}

	default:
		return ReconcileDecision{Processed: false, Reason: "unknown_status"}
	}
}
