package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/gateway"
	"checkout-service/logger"
	"checkout-service/models"
	"checkout-service/repository"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubOrderRepository and stubPaymentRepository satisfy the repository
// contracts with canned behavior; webhook acknowledgment tests only care
// about the HTTP response, not the reconciliation outcome.
type stubOrderRepository struct{}

func (stubOrderRepository) CreateWithItems(context.Context, *models.Order, []models.OrderItem) error {
	return nil
}
func (stubOrderRepository) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, nil
}
func (stubOrderRepository) UpdateStatus(context.Context, uuid.UUID, models.OrderStatus) error {
	return nil
}
func (stubOrderRepository) UpdateStatusFrom(context.Context, uuid.UUID, models.OrderStatus, models.OrderStatus) (bool, error) {
	return true, nil
}
func (stubOrderRepository) Delete(context.Context, uuid.UUID) error { return nil }

type stubPaymentRepository struct{}

func (stubPaymentRepository) Create(context.Context, *models.Payment) error { return nil }
func (stubPaymentRepository) FindByID(context.Context, uuid.UUID) (*models.Payment, error) {
	return nil, nil
}
func (stubPaymentRepository) FindByOrderID(context.Context, uuid.UUID) (*models.Payment, error) {
	return nil, nil
}
func (stubPaymentRepository) Update(context.Context, uuid.UUID, map[string]interface{}) error {
	return nil
}
func (stubPaymentRepository) UpdateIfStatus(context.Context, uuid.UUID, models.PaymentStatus, map[string]interface{}) (bool, error) {
	return true, nil
}

type stubCheckoutGateway struct{}

func (stubCheckoutGateway) CreateCheckoutLink(context.Context, string, []gateway.LinkItem, *gateway.LinkCustomer, *gateway.LinkAddress) (*gateway.CheckoutLink, error) {
	return &gateway.CheckoutLink{URL: "https://pay.example/stub"}, nil
}
func (stubCheckoutGateway) CheckPaymentStatus(context.Context, string) (*gateway.PaymentCheck, error) {
	return &gateway.PaymentCheck{Status: "pending"}, nil
}

var (
	_ repository.OrderRepository   = stubOrderRepository{}
	_ repository.PaymentRepository = stubPaymentRepository{}
	_ services.CheckoutGateway     = stubCheckoutGateway{}
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *services.WebhookWorker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	reconciler := services.NewReconcileService(
		stubOrderRepository{}, stubPaymentRepository{}, stubCheckoutGateway{},
		nil, nil, "", zap.NewNop(),
	)
	worker := services.NewWebhookWorker(reconciler, 1, 8, zap.NewNop())

	router := gin.New()
	router.POST("/api/webhooks/infinitepay", NewWebhookController(worker).Receive)
	return router, worker
}

func postWebhook(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/webhooks/infinitepay", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	router, worker := newWebhookRouter(t)
	defer worker.Stop()

	t.Run("valid payload", func(t *testing.T) {
		recorder := postWebhook(router, `{
			"event": "payment.updated",
			"order_nsu": "`+uuid.NewString()+`",
			"transaction_id": "tx-1",
			"payment_method": "pix",
			"status": "paid",
			"amount": 10000
		}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"received":true`)
		assert.NotContains(t, recorder.Body.String(), "validation_error")
	})

	t.Run("malformed json", func(t *testing.T) {
		recorder := postWebhook(router, `{not json`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"received":true`)
		assert.Contains(t, recorder.Body.String(), `"validation_error":true`)
	})

	t.Run("missing required fields", func(t *testing.T) {
		recorder := postWebhook(router, `{"event": "payment.updated"}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"validation_error":true`)
	})

	t.Run("order_nsu not a uuid", func(t *testing.T) {
		recorder := postWebhook(router, `{
			"event": "payment.updated",
			"order_nsu": "not-a-uuid",
			"transaction_id": "tx-1",
			"payment_method": "pix",
			"status": "paid",
			"amount": 10000
		}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"validation_error":true`)
	})
}
