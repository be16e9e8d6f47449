package services

import (
	"context"
	"fmt"
	"time"

	"checkout-service/apperrors"
	"checkout-service/gateway"
	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CheckoutItem is one line of a checkout request. UnitPrice is the base price
// in minor currency units, before any payment-method surcharge.
type CheckoutItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   int64
}

type CheckoutCustomer struct {
	Name  string
	Email string
	Phone string
}

// CheckoutInput is everything needed to open a hosted-checkout session.
type CheckoutInput struct {
	UserID        *uuid.UUID
	Items         []CheckoutItem
	PaymentMethod models.PaymentMethod
	Customer      *CheckoutCustomer
	Address       *models.ShippingAddress
}

// CheckoutResult is returned to the caller once the provider session exists.
type CheckoutResult struct {
	OrderID     uuid.UUID
	CheckoutURL string
	Total       int64
}

// OrderStatusResult is the combined order and payment view for the status
// endpoint.
type OrderStatusResult struct {
	OrderID       uuid.UUID            `json:"orderId"`
	OrderStatus   models.OrderStatus   `json:"orderStatus"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	CheckoutURL   *string              `json:"checkoutUrl,omitempty"`
	Total         int64                `json:"total"`
	PaidAt        *time.Time           `json:"paidAt,omitempty"`
}

// CheckoutService orchestrates order creation, payment creation and the
// provider hosted-checkout call.
type CheckoutService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  CheckoutGateway
	logger   *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gw CheckoutGateway,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{orders: orders, payments: payments, gateway: gw, logger: logger}
}

// surcharge applies the credit-card markup of 12.5%, rounding up so the
// merchant never loses a centavo: ceil(v * 9/8) in integer arithmetic.
func surcharge(v int64) int64 {
	return (v*9 + 7) / 8
}

// chargedUnitPrice is the per-unit price actually charged for the chosen
// payment method.
func chargedUnitPrice(base int64, method models.PaymentMethod) int64 {
	if method == models.MethodCreditCard {
		return surcharge(base)
	}
	return base
}

// CreateCheckout validates the cart, persists the order with its items and a
// pending payment, then opens a hosted-checkout session with the provider.
// If the provider call fails, the order is cancelled and the payment marked
// failed so no half-open checkout survives.
func (s *CheckoutService) CreateCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	var total int64
	items := make([]models.OrderItem, 0, len(input.Items))
	linkItems := make([]gateway.LinkItem, 0, len(input.Items))
	for _, it := range input.Items {
		unit := chargedUnitPrice(it.UnitPrice, input.PaymentMethod)
		total += unit * int64(it.Quantity)
		items = append(items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
		})
		linkItems = append(linkItems, gateway.LinkItem{
			Description: it.ProductName,
			Quantity:    it.Quantity,
			Price:       unit,
		})
	}

	order := &models.Order{
		UserID:          input.UserID,
		Status:          models.OrderPending,
		Total:           total,
		ShippingAddress: input.Address,
	}
	var linkCustomer *gateway.LinkCustomer
	if input.Customer != nil {
		order.CustomerName = &input.Customer.Name
		order.CustomerEmail = &input.Customer.Email
		lc := gateway.LinkCustomer{Name: input.Customer.Name, Email: input.Customer.Email}
		if input.Customer.Phone != "" {
			phone, err := models.ParsePhone(input.Customer.Phone)
			if err != nil {
				return nil, apperrors.Validation("invalid customer phone", err)
			}
			e164 := phone.E164()
			order.CustomerPhone = &e164
			lc.Phone = &e164
		}
		linkCustomer = &lc
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		return nil, apperrors.Persistence("failed to create order", err)
	}

	payment := &models.Payment{
		OrderID: order.ID,
		Method:  input.PaymentMethod,
		Status:  models.PaymentPending,
		Amount:  total,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.compensate(ctx, order.ID, nil, err)
		return nil, apperrors.Persistence("failed to create payment", err)
	}

	var linkAddress *gateway.LinkAddress
	if input.Address != nil {
		linkAddress = &gateway.LinkAddress{
			Zip:     input.Address.ZipCode,
			Street:  input.Address.Street,
			Number:  input.Address.Number,
			City:    input.Address.City,
			State:   input.Address.State,
			Country: input.Address.Country,
		}
		if input.Address.Complement != "" {
			linkAddress.Complement = &input.Address.Complement
		}
	}

	link, err := s.gateway.CreateCheckoutLink(ctx, order.ID.String(), linkItems, linkCustomer, linkAddress)
	if err != nil {
		s.compensate(ctx, order.ID, &payment.ID, err)
		return nil, err
	}

	provider := "infinitepay"
	if err := s.payments.Update(ctx, payment.ID, map[string]interface{}{
		"status":       models.PaymentProcessing,
		"checkout_url": link.URL,
		"provider":     provider,
	}); err != nil {
		// The remote session exists but cannot be recorded; the order must not
		// stay pending against a checkout link nobody stored.
		s.compensate(ctx, order.ID, &payment.ID, err)
		return nil, apperrors.Persistence("failed to record checkout link", err)
	}

	s.logger.Info("Checkout created",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Int64("total", total),
		zap.String("method", string(input.PaymentMethod)),
	)

	return &CheckoutResult{OrderID: order.ID, CheckoutURL: link.URL, Total: total}, nil
}

// GetOrderStatus returns the combined order and payment status.
func (s *CheckoutService) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (*OrderStatusResult, error) {
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

	return &OrderStatusResult{
		OrderID:       order.ID,
		OrderStatus:   order.Status,
		PaymentStatus: payment.Status,
		CheckoutURL:   payment.CheckoutURL,
		Total:         order.Total,
		PaidAt:        payment.PaidAt,
	}, nil
}

// compensate rolls a half-created checkout back after a downstream failure.
// It runs detached from the request context so a client timeout cannot leave
// the order stuck pending.
func (s *CheckoutService) compensate(ctx context.Context, orderID uuid.UUID, paymentID *uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)

	if paymentID != nil {
		if _, err := s.payments.UpdateIfStatus(ctx, *paymentID, models.PaymentPending, map[string]interface{}{
			"status":   models.PaymentFailed,
			"metadata": datatypes.JSONMap{"error": cause.Error()},
		}); err != nil {
			s.logger.Error("Compensation failed to mark payment failed",
				zap.String("payment_id", paymentID.String()),
				zap.Error(err),
			)
		}
	}

	if _, err := s.orders.UpdateStatusFrom(ctx, orderID, models.OrderPending, models.OrderCancelled); err != nil {
		s.logger.Error("Compensation failed to cancel order",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}

	s.logger.Warn("Checkout rolled back",
		zap.String("order_id", orderID.String()),
		zap.Error(cause),
	)
}

func validateCheckoutInput(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return apperrors.Validation("checkout requires at least one item", nil)
	}
	switch input.PaymentMethod {
	case models.MethodPix, models.MethodCreditCard:
	default:
		return apperrors.Validation(fmt.Sprintf("unsupported payment method %q", input.PaymentMethod), nil)
	}
	for i, it := range input.Items {
		if it.ProductID == "" {
			return apperrors.Validation(fmt.Sprintf("item %d is missing a product id", i), nil)
		}
		if it.Quantity < 1 {
			return apperrors.Validation(fmt.Sprintf("item %d has an invalid quantity", i), nil)
		}
		if it.UnitPrice <= 0 {
			return apperrors.Validation(fmt.Sprintf("item %d has an invalid price", i), nil)
		}
	}
	return nil
}
