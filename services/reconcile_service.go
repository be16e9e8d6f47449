package services

import (
	"context"
	"encoding/json"
	"time"

	"checkout-service/apperrors"
	"checkout-service/gateway"
	"checkout-service/models"
	awsx "checkout-service/pkg/aws"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutGateway is the provider surface the checkout and reconciliation
// flows depend on.
type CheckoutGateway interface {
	CreateCheckoutLink(ctx context.Context, orderID string, items []gateway.LinkItem, customer *gateway.LinkCustomer, address *gateway.LinkAddress) (*gateway.CheckoutLink, error)
	CheckPaymentStatus(ctx context.Context, orderID string) (*gateway.PaymentCheck, error)
}

// EventPublisher fans payment lifecycle events out to the rest of the system.
type EventPublisher interface {
	SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// ReconcileResult reports how a provider outcome was applied.
type ReconcileResult struct {
	Processed        bool   `json:"processed"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
	Failed           bool   `json:"failed,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// VerifyResult is the synchronous answer of the verify-status endpoint.
type VerifyResult struct {
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
}

// ReconcileService applies provider-reported payment outcomes to the stores.
// It is the single consumer of the Reconcile rules; the webhook worker and
// the verify-status endpoint both go through it.
type ReconcileService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  CheckoutGateway
	events   EventPublisher    // optional
	sns      awsx.SNSPublisher // optional, best-effort
	snsTopic string
	logger   *zap.Logger
}

func NewReconcileService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gw CheckoutGateway,
	events EventPublisher,
	sns awsx.SNSPublisher,
	snsTopic string,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		orders:   orders,
		payments: payments,
		gateway:  gw,
		events:   events,
		sns:      sns,
		snsTopic: snsTopic,
		logger:   logger,
	}
}

// ProcessWebhook applies an InfinitePay payment notification.
func (s *ReconcileService) ProcessWebhook(ctx context.Context, payload models.WebhookPayload) (*ReconcileResult, error) {
	orderID, err := uuid.Parse(payload.OrderNSU)
	if err != nil {
		return nil, apperrors.Validation("order_nsu is not a valid order id", err)
	}

	outcome := ProviderOutcome{
		Status:        payload.Status,
		TransactionID: payload.TransactionID,
		PaymentMethod: payload.PaymentMethod,
		Amount:        payload.Amount,
	}
	if payload.PaidAt != nil && *payload.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, *payload.PaidAt); err == nil {
			outcome.PaidAt = &t
		}
	}

	s.logger.Info("Processing payment webhook",
		zap.String("event", payload.Event),
		zap.String("order_id", orderID.String()),
		zap.String("status", payload.Status),
	)

	return s.ApplyOutcome(ctx, orderID, outcome)
}

// VerifyPayment polls the provider for the order's payment outcome and
// applies the same reconciliation rules as the webhook path.
func (s *ReconcileService) VerifyPayment(ctx context.Context, orderID uuid.UUID) (*VerifyResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load order", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}

	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load payment", err)
	}
	if payment == nil {
		return nil, apperrors.NotFound("payment not found")
	}

	if payment.Status == models.PaymentCompleted {
		return &VerifyResult{Status: string(models.PaymentCompleted), AlreadyProcessed: true}, nil
	}

	check, err := s.gateway.CheckPaymentStatus(ctx, orderID.String())
	if err != nil {
		return nil, err
	}

	outcome := ProviderOutcome{Status: check.Status, PaidAt: check.PaidAt}
	if check.TransactionID != nil {
		outcome.TransactionID = *check.TransactionID
	}
	if check.PaymentMethod != nil {
		outcome.PaymentMethod = *check.PaymentMethod
	}
	if check.Amount != nil {
		outcome.Amount = *check.Amount
	}

	result, err := s.ApplyOutcome(ctx, orderID, outcome)
	if err != nil {
		return nil, err
	}

	if result.Processed && !result.Failed {
		return &VerifyResult{Status: string(models.PaymentCompleted), AlreadyProcessed: result.AlreadyProcessed}, nil
	}
	return &VerifyResult{Status: check.Status}, nil
}

// ApplyOutcome reconciles one provider outcome against the stored payment.
// The payment write is conditional on the status observed at read time; when
// a concurrent reconciliation wins the race the outcome is re-evaluated
// against the fresh row, which the idempotent rules turn into a no-op.
func (s *ReconcileService) ApplyOutcome(ctx context.Context, orderID uuid.UUID, outcome ProviderOutcome) (*ReconcileResult, error) {
	for attempt := 0; attempt < 2; attempt++ {
		payment, err := s.payments.FindByOrderID(ctx, orderID)
		if err != nil {
			return nil, apperrors.Persistence("failed to load payment", err)
		}
		if payment == nil {
			return nil, apperrors.NotFound("payment not found for order")
		}

		decision := Reconcile(payment, outcome, time.Now().UTC())
		if !decision.NeedsWrite() {
			return &ReconcileResult{
				Processed:        decision.Processed,
				AlreadyProcessed: decision.AlreadyProcessed,
				Reason:           decision.Reason,
			}, nil
		}

		updated, err := s.payments.UpdateIfStatus(ctx, payment.ID, payment.Status, decision.PaymentUpdates)
		if err != nil {
			return nil, apperrors.Persistence("failed to update payment", err)
		}
		if !updated {
			s.logger.Info("Payment changed concurrently, re-reading",
				zap.String("order_id", orderID.String()),
				zap.String("payment_id", payment.ID.String()),
			)
			continue
		}

		if decision.OrderStatus != nil {
			moved, err := s.orders.UpdateStatusFrom(ctx, orderID, models.OrderPending, *decision.OrderStatus)
			if err != nil {
				return nil, apperrors.Persistence("failed to update order status", err)
			}
			if !moved {
				// The payment completed but the order had already left pending
				// (e.g. cancelled); surface the mismatch for operators.
				s.logger.Warn("Order transition skipped, order no longer pending",
					zap.String("order_id", orderID.String()),
					zap.String("target_status", string(*decision.OrderStatus)),
				)
			}
		}

		s.publishEvent(ctx, payment, decision, outcome)

		return &ReconcileResult{
			Processed: decision.Processed,
			Failed:    decision.Failed,
		}, nil
	}

	return &ReconcileResult{Processed: false, Reason: "concurrent_update"}, nil
}

func (s *ReconcileService) publishEvent(ctx context.Context, payment *models.Payment, decision ReconcileDecision, outcome ProviderOutcome) {
	eventType := eventTypeFor(decision)
	if eventType == "" {
		return
	}

	event := models.PaymentEvent{
		Type:          eventType,
		OrderID:       payment.OrderID.String(),
		PaymentID:     payment.ID.String(),
		Amount:        payment.Amount,
		Method:        outcome.PaymentMethod,
		TransactionID: outcome.TransactionID,
		Timestamp:     time.Now().UTC(),
	}

	if s.events != nil {
		if err := s.events.SendPaymentEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish payment event",
				zap.String("type", event.Type),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}

	// SNS fan-out is best-effort; a publish failure never fails reconciliation.
	if s.sns != nil && s.snsTopic != "" {
		payload, _ := json.Marshal(event)
		if err := s.sns.Publish(ctx, s.snsTopic, payload); err != nil {
			s.logger.Warn("Failed to publish payment event to SNS",
				zap.String("type", event.Type),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}
}

// eventTypeFor maps a reconcile decision to the event it should emit, or ""
// when no transition happened.
func eventTypeFor(decision ReconcileDecision) string {
	switch {
	case decision.Processed && decision.Failed:
		return models.EventPaymentFailed
	case decision.Processed && !decision.AlreadyProcessed:
		return models.EventPaymentConfirmed
	default:
		return ""
	}
}
