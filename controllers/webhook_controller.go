package controllers

import (
	"net/http"

	"checkout-service/logger"
	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookController receives InfinitePay payment notifications. The provider
// is always answered 200: a non-2xx would only trigger redelivery of a
// payload that will fail validation the same way again.
type WebhookController struct {
	worker *services.WebhookWorker
}

func NewWebhookController(worker *services.WebhookWorker) *WebhookController {
	return &WebhookController{worker: worker}
}

// Receive handles POST /api/webhooks/infinitepay.
func (ctrl *WebhookController) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Log.Warn("Malformed webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true, "validation_error": true})
		return
	}

	if !ctrl.worker.Enqueue(payload) {
		// Queue full: acknowledge anyway, the provider redelivers later.
		c.JSON(http.StatusOK, gin.H{"received": true, "queued": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
