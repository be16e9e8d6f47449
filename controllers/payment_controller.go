package controllers

import (
	"net/http"

	"checkout-service/apperrors"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type directCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
	CPF   string `json:"cpf" binding:"required"`
}

type directAddressRequest struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number" binding:"required"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	ZipCode      string `json:"zip_code" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

// directPaymentRequest is discriminated by payment_method; the card-only
// fields are validated after dispatch.
type directPaymentRequest struct {
	OrderID       string                `json:"order_id" binding:"required,uuid"`
	PaymentMethod string                `json:"payment_method" binding:"required,oneof=pix credit_card"`
	Customer      directCustomerRequest `json:"customer" binding:"required"`
	Address       directAddressRequest  `json:"address" binding:"required"`

	CardToken    string `json:"card_token"`
	Installments int    `json:"installments"`
}

// PaymentController exposes the direct (non-link) payment path.
type PaymentController struct {
	payments *services.DirectPaymentService
}

func NewPaymentController(payments *services.DirectPaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// Create handles POST /api/payments/create. A replayed request for an order
// that already holds a live payment answers 200 with the existing payment;
// a fresh charge answers 201.
func (ctrl *PaymentController) Create(c *gin.Context) {
	var req directPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid payment request", err))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(c, apperrors.Validation("invalid order id", err))
		return
	}

	common := services.DirectPaymentCommon{
		OrderID: orderID,
		Customer: services.DirectPaymentCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
			CPF:   req.Customer.CPF,
		},
		Address: services.DirectPaymentAddress{
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Neighborhood: req.Address.Neighborhood,
			City:         req.Address.City,
			State:        req.Address.State,
			ZipCode:      req.Address.ZipCode,
			Country:      req.Address.Country,
		},
	}

	var input services.DirectPaymentInput
	switch req.PaymentMethod {
	case "pix":
		input = services.PixPaymentInput{DirectPaymentCommon: common}
	case "credit_card":
		input = services.CardPaymentInput{
			DirectPaymentCommon: common,
			CardToken:           req.CardToken,
			Installments:        req.Installments,
		}
	default:
		respondError(c, apperrors.Validation("unsupported payment_method", nil))
		return
	}

	result, err := ctrl.payments.CreatePayment(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "data": result})
}
