package models

import "time"

// PaymentEvent is the message fanned out to Kafka/SNS whenever a payment
// transitions state.
type PaymentEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	PaymentID     string    `json:"payment_id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentFailed    = "payment_failed"
)

// WebhookPayload is the InfinitePay payment notification body.
// order_nsu carries the merchant-side order id used as the idempotency key.
type WebhookPayload struct {
	Event         string  `json:"event" binding:"required"`
	OrderNSU      string  `json:"order_nsu" binding:"required,uuid"`
	TransactionID string  `json:"transaction_id" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Status        string  `json:"status" binding:"required"`
	Amount        int64   `json:"amount" binding:"required"`
	PaidAt        *string `json:"paid_at,omitempty"`
}
