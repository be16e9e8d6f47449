package routes

import (
	"checkout-service/controllers"

	"github.com/gin-gonic/gin"
)

// Register wires every HTTP endpoint onto the router.
func Register(
	router *gin.Engine,
	checkout *controllers.CheckoutController,
	payments *controllers.PaymentController,
	webhooks *controllers.WebhookController,
) {
	api := router.Group("/api")
	{
		api.POST("/checkout", checkout.Create)
		api.GET("/checkout/:orderId/status", checkout.GetStatus)
		api.POST("/checkout/:orderId/verify-payment", checkout.VerifyPayment)

		api.POST("/payments/create", payments.Create)

		api.POST("/webhooks/infinitepay", webhooks.Receive)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
