package services

import (
	"context"

	"checkout-service/gateway"
	"checkout-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// --- Mock repositories ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateIfStatus(ctx context.Context, id uuid.UUID, expected models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, expected, updates)
	return args.Bool(0), args.Error(1)
}

// --- Mock gateways ---

type MockCheckoutGateway struct {
	mock.Mock
}

func (m *MockCheckoutGateway) CreateCheckoutLink(ctx context.Context, orderID string, items []gateway.LinkItem, customer *gateway.LinkCustomer, address *gateway.LinkAddress) (*gateway.CheckoutLink, error) {
	args := m.Called(ctx, orderID, items, customer, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutLink), args.Error(1)
}

func (m *MockCheckoutGateway) CheckPaymentStatus(ctx context.Context, orderID string) (*gateway.PaymentCheck, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentCheck), args.Error(1)
}

type MockDirectGateway struct {
	mock.Mock
}

func (m *MockDirectGateway) CreatePixPayment(ctx context.Context, orderID string, customer gateway.DirectCustomer, address gateway.DirectAddress) (*gateway.PixCharge, error) {
	args := m.Called(ctx, orderID, customer, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PixCharge), args.Error(1)
}

func (m *MockDirectGateway) CreateCardPayment(ctx context.Context, orderID, cardToken string, installments int, customer gateway.DirectCustomer, address gateway.DirectAddress) (*gateway.CardCharge, error) {
	args := m.Called(ctx, orderID, cardToken, installments, customer, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CardCharge), args.Error(1)
}

// --- Mock event publisher ---

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
