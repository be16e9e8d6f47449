package controllers

import (
	"net/http"

	"checkout-service/apperrors"
	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type checkoutItemRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	ProductName string `json:"productName" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice   int64  `json:"unitPrice" binding:"required,gt=0"`
}

type checkoutCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type checkoutAddressRequest struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number" binding:"required"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	CEP          string `json:"cep" binding:"required"`
	Country      string `json:"country" binding:"required"`
	Complement   string `json:"complement"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest    `json:"items" binding:"required,min=1,dive"`
	Customer      *checkoutCustomerRequest `json:"customer" binding:"required"`
	Address       *checkoutAddressRequest  `json:"address"`
	PaymentMethod string                   `json:"paymentMethod" binding:"required,oneof=pix card"`
}

// CheckoutController exposes the hosted-checkout HTTP surface.
type CheckoutController struct {
	checkout   *services.CheckoutService
	reconciler *services.ReconcileService
}

func NewCheckoutController(checkout *services.CheckoutService, reconciler *services.ReconcileService) *CheckoutController {
	return &CheckoutController{checkout: checkout, reconciler: reconciler}
}

// Create handles POST /api/checkout.
func (ctrl *CheckoutController) Create(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid checkout request", err))
		return
	}

	method := models.MethodPix
	if req.PaymentMethod == "card" {
		method = models.MethodCreditCard
	}

	input := services.CheckoutInput{
		PaymentMethod: method,
		Customer: &services.CheckoutCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, services.CheckoutItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	if req.Address != nil {
		input.Address = &models.ShippingAddress{
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Neighborhood: req.Address.Neighborhood,
			City:         req.Address.City,
			State:        req.Address.State,
			ZipCode:      req.Address.CEP,
			Country:      req.Address.Country,
			Complement:   req.Address.Complement,
		}
	}

	result, err := ctrl.checkout.CreateCheckout(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"orderId":     result.OrderID,
			"checkoutUrl": result.CheckoutURL,
			"total":       result.Total,
		},
	})
}

// GetStatus handles GET /api/checkout/:orderId/status.
func (ctrl *CheckoutController) GetStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid order id", err))
		return
	}

	status, err := ctrl.checkout.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// VerifyPayment handles POST /api/checkout/:orderId/verify-payment, the
// synchronous fallback for missed webhooks.
func (ctrl *CheckoutController) VerifyPayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid order id", err))
		return
	}

	result, err := ctrl.reconciler.VerifyPayment(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
