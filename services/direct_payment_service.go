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

// DirectGateway is the synchronous (non-link) charge surface.
type DirectGateway interface {
	CreatePixPayment(ctx context.Context, orderID string, customer gateway.DirectCustomer, address gateway.DirectAddress) (*gateway.PixCharge, error)
	CreateCardPayment(ctx context.Context, orderID, cardToken string, installments int, customer gateway.DirectCustomer, address gateway.DirectAddress) (*gateway.CardCharge, error)
}

// DirectPaymentCustomer carries the payer identity for a direct charge. Phone
// is the raw client input; it is parsed and validated before any remote call.
type DirectPaymentCustomer struct {
	Name  string
	Email string
	Phone string
	CPF   string
}

type DirectPaymentAddress struct {
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	ZipCode      string
	Country      string
}

// DirectPaymentInput is a sealed variant type: exactly PixPaymentInput or
// CardPaymentInput. Dispatch sites must handle both.
type DirectPaymentInput interface {
	directPayment()
	Common() DirectPaymentCommon
}

// DirectPaymentCommon is the shared part of both variants.
type DirectPaymentCommon struct {
	OrderID  uuid.UUID
	Customer DirectPaymentCustomer
	Address  DirectPaymentAddress
}

func (c DirectPaymentCommon) Common() DirectPaymentCommon { return c }

type PixPaymentInput struct {
	DirectPaymentCommon
}

func (PixPaymentInput) directPayment() {}

type CardPaymentInput struct {
	DirectPaymentCommon
	CardToken    string
	Installments int
}

func (CardPaymentInput) directPayment() {}

// DirectPaymentResult is the outcome of a direct charge, or the replayed data
// of an existing one when the duplicate guard fires.
type DirectPaymentResult struct {
	Type       models.PaymentMethod `json:"type"`
	PaymentID  uuid.UUID            `json:"payment_id"`
	Amount     int64                `json:"amount"`
	Status     models.PaymentStatus `json:"status"`
	ProviderID string               `json:"provider_id,omitempty"`
	Reused     bool                 `json:"-"`

	QRCode    string     `json:"qr_code,omitempty"`
	QRCodeURL string     `json:"qr_code_url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Installments int `json:"installments,omitempty"`
}

// DirectPaymentService runs the fixed-price direct payment path: PIX with a
// scannable QR code, or a synchronously settled card charge.
type DirectPaymentService struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  DirectGateway
	logger   *zap.Logger
}

func NewDirectPaymentService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gw DirectGateway,
	logger *zap.Logger,
) *DirectPaymentService {
	return &DirectPaymentService{orders: orders, payments: payments, gateway: gw, logger: logger}
}

// CreatePayment charges the order directly. An order that already holds a
// non-failed payment is never charged again; the existing payment's data is
// returned instead so client retries are safe.
func (s *DirectPaymentService) CreatePayment(ctx context.Context, input DirectPaymentInput) (*DirectPaymentResult, error) {
	common := input.Common()

	if card, ok := input.(CardPaymentInput); ok {
		if card.Installments < 1 || card.Installments > gateway.MaxInstallments {
			return nil, apperrors.Validation(fmt.Sprintf("installments must be between 1 and %d", gateway.MaxInstallments), nil)
		}
		if card.CardToken == "" {
			return nil, apperrors.Validation("card_token is required", nil)
		}
	}

	order, err := s.orders.FindByID(ctx, common.OrderID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load order", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("order not found")
	}

	existing, err := s.payments.FindByOrderID(ctx, common.OrderID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load payment", err)
	}
	if existing != nil && existing.Blocking() {
		s.logger.Info("Reusing existing payment for order",
			zap.String("order_id", common.OrderID.String()),
			zap.String("payment_id", existing.ID.String()),
			zap.String("status", string(existing.Status)),
		)
		return resultFromPayment(existing), nil
	}

	phone, err := models.ParsePhone(common.Customer.Phone)
	if err != nil {
		return nil, apperrors.Validation("invalid customer phone", err)
	}
	customer := gateway.DirectCustomer{
		Name:  common.Customer.Name,
		Email: common.Customer.Email,
		Phone: phone,
		CPF:   common.Customer.CPF,
	}
	address := gateway.DirectAddress{
		Zip:          common.Address.ZipCode,
		Street:       common.Address.Street,
		Number:       common.Address.Number,
		Neighborhood: common.Address.Neighborhood,
		City:         common.Address.City,
		State:        common.Address.State,
		Country:      common.Address.Country,
	}

	switch in := input.(type) {
	case PixPaymentInput:
		return s.createPix(ctx, order, customer, address)
	case CardPaymentInput:
		return s.createCard(ctx, order, in.CardToken, in.Installments, customer, address)
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unsupported direct payment variant %T", in), nil)
	}
}

func (s *DirectPaymentService) createPix(ctx context.Context, order *models.Order, customer gateway.DirectCustomer, address gateway.DirectAddress) (*DirectPaymentResult, error) {
	payment := &models.Payment{
		OrderID: order.ID,
		Method:  models.MethodPix,
		Status:  models.PaymentPending,
		Amount:  gateway.PricePix,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.Persistence("failed to create payment", err)
	}

	charge, err := s.gateway.CreatePixPayment(ctx, order.ID.String(), customer, address)
	if err != nil {
		s.markFailed(ctx, payment.ID, err)
		return nil, err
	}

	provider := "pagarme"
	updates := map[string]interface{}{
		"status":             models.PaymentProcessing,
		"provider":           provider,
		"provider_order_id":  charge.ProviderOrderID,
		"provider_charge_id": charge.ProviderChargeID,
		"pix_qr_code":        charge.QRCode,
		"pix_qr_code_url":    charge.QRCodeURL,
		"pix_expires_at":     charge.ExpiresAt,
	}
	if _, err := s.payments.UpdateIfStatus(ctx, payment.ID, models.PaymentPending, updates); err != nil {
		return nil, apperrors.Persistence("failed to record pix charge", err)
	}

	expiresAt := charge.ExpiresAt
	return &DirectPaymentResult{
		Type:       models.MethodPix,
		PaymentID:  payment.ID,
		Amount:     charge.Amount,
		Status:     models.PaymentProcessing,
		ProviderID: charge.ProviderOrderID,
		QRCode:     charge.QRCode,
		QRCodeURL:  charge.QRCodeURL,
		ExpiresAt:  &expiresAt,
	}, nil
}

func (s *DirectPaymentService) createCard(ctx context.Context, order *models.Order, cardToken string, installments int, customer gateway.DirectCustomer, address gateway.DirectAddress) (*DirectPaymentResult, error) {
	payment := &models.Payment{
		OrderID:      order.ID,
		Method:       models.MethodCreditCard,
		Status:       models.PaymentPending,
		Amount:       gateway.PriceCard,
		Installments: &installments,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.Persistence("failed to create payment", err)
	}

	charge, err := s.gateway.CreateCardPayment(ctx, order.ID.String(), cardToken, installments, customer, address)
	if err != nil {
		s.markFailed(ctx, payment.ID, err)
		return nil, err
	}

	provider := "pagarme"
	status := models.PaymentProcessing
	updates := map[string]interface{}{
		"provider":           provider,
		"provider_order_id":  charge.ProviderOrderID,
		"provider_charge_id": charge.ProviderChargeID,
	}
	switch charge.Status {
	case "paid", "approved":
		status = models.PaymentCompleted
		now := time.Now().UTC()
		updates["paid_at"] = now
		method := string(models.MethodCreditCard)
		updates["payment_method_used"] = method
	case "failed", "refused":
		status = models.PaymentFailed
		updates["metadata"] = datatypes.JSONMap{"failure_reason": charge.Status}
	}
	updates["status"] = status

	if _, err := s.payments.UpdateIfStatus(ctx, payment.ID, models.PaymentPending, updates); err != nil {
		return nil, apperrors.Persistence("failed to record card charge", err)
	}

	if status == models.PaymentCompleted {
		if _, err := s.orders.UpdateStatusFrom(ctx, order.ID, models.OrderPending, models.OrderConfirmed); err != nil {
			return nil, apperrors.Persistence("failed to confirm order", err)
		}
	}

	return &DirectPaymentResult{
		Type:         models.MethodCreditCard,
		PaymentID:    payment.ID,
		Amount:       charge.Amount,
		Status:       status,
		ProviderID:   charge.ProviderOrderID,
		Installments: charge.Installments,
	}, nil
}

// markFailed records a provider failure on the payment row; errors here are
// logged and swallowed because the original gateway error is what the caller
// needs to see.
func (s *DirectPaymentService) markFailed(ctx context.Context, paymentID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.payments.UpdateIfStatus(ctx, paymentID, models.PaymentPending, map[string]interface{}{
		"status":   models.PaymentFailed,
		"metadata": datatypes.JSONMap{"error": cause.Error()},
	}); err != nil {
		s.logger.Error("Failed to mark direct payment failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
	}
}

func resultFromPayment(p *models.Payment) *DirectPaymentResult {
	res := &DirectPaymentResult{
		Type:      p.Method,
		PaymentID: p.ID,
		Amount:    p.Amount,
		Status:    p.Status,
		Reused:    true,
	}
	if p.ProviderOrderID != nil {
		res.ProviderID = *p.ProviderOrderID
	}
	if p.PixQRCode != nil {
		res.QRCode = *p.PixQRCode
	}
	if p.PixQRCodeURL != nil {
		res.QRCodeURL = *p.PixQRCodeURL
	}
	res.ExpiresAt = p.PixExpiresAt
	if p.Installments != nil {
		res.Installments = *p.Installments
	}
	return res
}
