package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"checkout-service/apperrors"
	"checkout-service/gateway"
	"checkout-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func directCommon(orderID uuid.UUID) DirectPaymentCommon {
	return DirectPaymentCommon{
		OrderID: orderID,
		Customer: DirectPaymentCustomer{
			Name:  "Maria Silva",
			Email: "maria@example.com",
			Phone: "+55 22 99789-3098",
			CPF:   "123.456.789-09",
		},
		Address: DirectPaymentAddress{
			Street:       "Rua das Flores",
			Number:       "100",
			Neighborhood: "Centro",
			City:         "Campos",
			State:        "RJ",
			ZipCode:      "28000-000",
			Country:      "BR",
		},
	}
}

func TestDirectCardInstallmentsOutOfRange(t *testing.T) {
	orders := new(MockOrderRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockDirectGateway)
	svc := NewDirectPaymentService(orders, payments, gw, zap.NewNop())

	for _, installments := range []int{0, 11, -1} {
		_, err := svc.CreatePayment(context.Background(), CardPaymentInput{
			DirectPaymentCommon: directCommon(uuid.New()),
			CardToken:           "tok_abc",
			Installments:        installments,
		})

		require.Error(t, err, "installments=%d", installments)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "installments=%d", installments)
	}

	// Rejected before any store or provider call.
	orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreateCardPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectCardInstallmentBounds(t *testing.T) {
	for _, installments := range []int{1, 10} {
		t.Run(fmt.Sprintf("installments_%d", installments), func(t *testing.T) {
			orders := new(MockOrderRepository)
			payments := new(MockPaymentRepository)
			gw := new(MockDirectGateway)
			svc := NewDirectPaymentService(orders, payments, gw, zap.NewNop())

			orderID := uuid.New()
			orders.On("FindByID", mock.Anything, orderID).
				Return(&models.Order{ID: orderID, Status: models.OrderPending}, nil).Once()
			payments.On("FindByOrderID", mock.Anything, orderID).Return(nil, nil).Once()
			payments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
			gw.On("CreateCardPayment", mock.Anything, orderID.String(), "tok_abc", installments, mock.Anything, mock.Anything).
				Return(&gateway.CardCharge{
					ProviderOrderID:  "or_1",
					ProviderChargeID: "ch_1",
					Amount:           gateway.PriceCard,
					Installments:     installments,
					Status:           "paid",
				}, nil).Once()
			payments.On("UpdateIfStatus", mock.Anything, mock.Anything, models.PaymentPending, mock.Anything).
				Return(true, nil).Once()
			orders.On("UpdateStatusFrom", mock.Anything, orderID, models.OrderPending, models.OrderConfirmed).
				Return(true, nil).Once()

			result, err := svc.CreatePayment(context.Background(), CardPaymentInput{
				DirectPaymentCommon: directCommon(orderID),
				CardToken:           "tok_abc",
				Installments:        installments,
			})

			require.NoError(t, err)
			assert.Equal(t, models.PaymentCompleted, result.Status)
			assert.Equal(t, installments, result.Installments)
			assert.Equal(t, gateway.PriceCard, result.Amount)
			gw.AssertExpectations(t)
			orders.AssertExpectations(t)
		})
	}
}

func TestDirectDuplicateGuardReturnsExisting(t *testing.T) {
	orders := new(MockOrderRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockDirectGateway)
	svc := NewDirectPaymentService(orders, payments, gw, zap.NewNop())

	orderID := uuid.New()
	providerID := "or_existing"
	qrCode := "qr-data"
	existing := &models.Payment{
		ID:              uuid.New(),
		OrderID:         orderID,
		Method:          models.MethodPix,
		Status:          models.PaymentProcessing,
		Amount:          gateway.PricePix,
		ProviderOrderID: &providerID,
		PixQRCode:       &qrCode,
	}

	orders.On("FindByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, Status: models.OrderPending}, nil).Once()
	payments.On("FindByOrderID", mock.Anything, orderID).Return(existing, nil).Once()

	result, err := svc.CreatePayment(context.Background(), PixPaymentInput{DirectPaymentCommon: directCommon(orderID)})

	require.NoError(t, err)
	assert.True(t, result.Reused)
	assert.Equal(t, existing.ID, result.PaymentID)
	assert.Equal(t, "or_existing", result.ProviderID)
	assert.Equal(t, "qr-data", result.QRCode)

	// No new charge is created remotely or locally.
	gw.AssertNotCalled(t, "CreatePixPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDirectFailedPaymentDoesNotBlockRetry(t *testing.T) {
	orders := new(MockOrderRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockDirectGateway)
	svc := NewDirectPaymentService(orders, payments, gw, zap.NewNop())

	orderID := uuid.New()
	failed := &models.Payment{
		ID:      uuid.New(),
		OrderID: orderID,
		Method:  models.MethodPix,
		Status:  models.PaymentFailed,
		Amount:  gateway.PricePix,
	}

	orders.On("FindByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, Status: models.OrderPending}, nil).Once()
	payments.On("FindByOrderID", mock.Anything, orderID).Return(failed, nil).Once()
	payments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	gw.On("CreatePixPayment", mock.Anything, orderID.String(), mock.Anything, mock.Anything).
		Return(&gateway.PixCharge{
			ProviderOrderID:  "or_2",
			ProviderChargeID: "ch_2",
			Amount:           gateway.PricePix,
			QRCode:           "qr-new",
			QRCodeURL:        "https://qr.example/new",
			ExpiresAt:        time.Now().Add(30 * time.Minute),
			Status:           "pending",
		}, nil).Once()
	payments.On("UpdateIfStatus", mock.Anything, mock.Anything, models.PaymentPending, mock.Anything).
		Return(true, nil).Once()

	result, err := svc.CreatePayment(context.Background(), PixPaymentInput{DirectPaymentCommon: directCommon(orderID)})

	require.NoError(t, err)
	assert.False(t, result.Reused)
	assert.Equal(t, models.MethodPix, result.Type)
	assert.Equal(t, gateway.PricePix, result.Amount)
	assert.Equal(t, "qr-new", result.QRCode)
	gw.AssertExpectations(t)
}

func TestDirectInvalidPhoneRejected(t *testing.T) {
	orders := new(MockOrderRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockDirectGateway)
	svc := NewDirectPaymentService(orders, payments, gw, zap.NewNop())

	orderID := uuid.New()
	common := directCommon(orderID)
	common.Customer.Phone = "1234"

	orders.On("FindByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, Status: models.OrderPending}, nil).Once()
	payments.On("FindByOrderID", mock.Anything, orderID).Return(nil, nil).Once()

	_, err := svc.CreatePayment(context.Background(), PixPaymentInput{DirectPaymentCommon: common})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	gw.AssertNotCalled(t, "CreatePixPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectUnknownOrder(t *testing.T) {
	orders := new(MockOrderRepository)
	payments := new(MockPaymentRepository)
	svc := NewDirectPaymentService(orders, payments, new(MockDirectGateway), zap.NewNop())

	orderID := uuid.New()
	orders.On("FindByID", mock.Anything, orderID).Return(nil, nil).Once()

	_, err := svc.CreatePayment(context.Background(), PixPaymentInput{DirectPaymentCommon: directCommon(orderID)})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
