package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"checkout-service/apperrors"
	"checkout-service/models"

	"go.uber.org/zap"
)

// Fixed-price direct payment products.
const (
	PricePix        int64 = 15990 // R$ 159,90 in centavos
	PriceCard       int64 = 18000 // R$ 180,00 in centavos
	MaxInstallments       = 10
	pixExpiresIn          = 1800 // seconds
)

var nonDigits = regexp.MustCompile(`\D`)

// DirectCustomer identifies the payer on the direct (non-link) path.
type DirectCustomer struct {
	Name  string
	Email string
	Phone models.Phone
	CPF   string
}

type DirectAddress struct {
	Zip          string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	Country      string
}

// PixCharge is a synchronously created PIX charge with its scannable code.
type PixCharge struct {
	ProviderOrderID  string
	ProviderChargeID string
	Amount           int64
	QRCode           string
	QRCodeURL        string
	ExpiresAt        time.Time
	Status           string
}

// CardCharge is a synchronously settled credit-card charge.
type CardCharge struct {
	ProviderOrderID  string
	ProviderChargeID string
	Amount           int64
	Installments     int
	Status           string
}

// PagarmeClient integrates with the Pagar.me v5 Orders API for the direct
// payment path. The merchant order id is sent as the order code, Pagar.me's
// deduplication key.
type PagarmeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPagarmeClient(baseURL, secretKey string, logger *zap.Logger) *PagarmeClient {
	return &PagarmeClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

type pagarmePhone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type pagarmeCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Type     string `json:"type"`
	Document string `json:"document"`
	Phones   struct {
		MobilePhone pagarmePhone `json:"mobile_phone"`
	} `json:"phones"`
}

type pagarmeAddress struct {
	Line1   string `json:"line_1"` // "number, street, neighborhood"
	ZipCode string `json:"zip_code"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type pagarmeOrderResponse struct {
	ID      string `json:"id"`
	Charges []struct {
		ID              string `json:"id"`
		Amount          int64  `json:"amount"`
		Status          string `json:"status"`
		Installments    int    `json:"installments"`
		LastTransaction struct {
			QRCode    string `json:"qr_code"`
			QRCodeURL string `json:"qr_code_url"`
			ExpiresAt string `json:"expires_at"`
		} `json:"last_transaction"`
	} `json:"charges"`
}

// CreatePixPayment creates a fixed-price PIX order and returns its QR code.
func (c *PagarmeClient) CreatePixPayment(ctx context.Context, orderID string, customer DirectCustomer, address DirectAddress) (*PixCharge, error) {
	c.logger.Info("Creating Pagar.me PIX payment",
		zap.String("order_id", orderID),
		zap.Int64("amount", PricePix),
	)

	payload := map[string]interface{}{
		"code": orderID,
		"items": []map[string]interface{}{
			{"amount": PricePix, "description": "Pedido #" + orderID, "quantity": 1},
		},
		"customer": c.buildCustomer(customer),
		"payments": []map[string]interface{}{
			{
				"payment_method": "pix",
				"pix":            map[string]interface{}{"expires_in": pixExpiresIn},
			},
		},
		"shipping": map[string]interface{}{
			"address": buildAddress(address),
		},
	}

	resp, err := c.postOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	if len(resp.Charges) == 0 {
		return nil, apperrors.Gateway("provider response has no charges", false, nil)
	}

	charge := resp.Charges[0]
	expiresAt, _ := time.Parse(time.RFC3339, charge.LastTransaction.ExpiresAt)

	c.logger.Info("Pagar.me PIX created",
		zap.String("provider_order_id", resp.ID),
		zap.String("provider_charge_id", charge.ID),
		zap.String("status", charge.Status),
	)

	return &PixCharge{
		ProviderOrderID:  resp.ID,
		ProviderChargeID: charge.ID,
		Amount:           charge.Amount,
		QRCode:           charge.LastTransaction.QRCode,
		QRCodeURL:        charge.LastTransaction.QRCodeURL,
		ExpiresAt:        expiresAt,
		Status:           charge.Status,
	}, nil
}

// CreateCardPayment charges a pre-tokenized card in 1 to 10 installments and
// returns the charge outcome immediately.
func (c *PagarmeClient) CreateCardPayment(ctx context.Context, orderID, cardToken string, installments int, customer DirectCustomer, address DirectAddress) (*CardCharge, error) {
	if installments < 1 || installments > MaxInstallments {
		return nil, apperrors.Validation(fmt.Sprintf("installments must be between 1 and %d", MaxInstallments), nil)
	}

	c.logger.Info("Creating Pagar.me card payment",
		zap.String("order_id", orderID),
		zap.Int64("amount", PriceCard),
		zap.Int("installments", installments),
	)

	payload := map[string]interface{}{
		"code": orderID,
		"items": []map[string]interface{}{
			{"amount": PriceCard, "description": "Pedido #" + orderID, "quantity": 1},
		},
		"customer": c.buildCustomer(customer),
		"payments": []map[string]interface{}{
			{
				"payment_method": "credit_card",
				"credit_card": map[string]interface{}{
					"installments":         installments,
					"statement_descriptor": "ECOMMERCE",
					"card_token":           cardToken,
					"billing_address":      buildAddress(address),
				},
			},
		},
	}

	resp, err := c.postOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	if len(resp.Charges) == 0 {
		return nil, apperrors.Gateway("provider response has no charges", false, nil)
	}

	charge := resp.Charges[0]

	c.logger.Info("Pagar.me card processed",
		zap.String("provider_order_id", resp.ID),
		zap.String("provider_charge_id", charge.ID),
		zap.String("status", charge.Status),
		zap.Int("installments", charge.Installments),
	)

	return &CardCharge{
		ProviderOrderID:  resp.ID,
		ProviderChargeID: charge.ID,
		Amount:           charge.Amount,
		Installments:     charge.Installments,
		Status:           charge.Status,
	}, nil
}

func (c *PagarmeClient) buildCustomer(customer DirectCustomer) pagarmeCustomer {
	pc := pagarmeCustomer{
		Name:     customer.Name,
		Email:    customer.Email,
		Type:     "individual",
		Document: nonDigits.ReplaceAllString(customer.CPF, ""),
	}
	pc.Phones.MobilePhone = pagarmePhone{
		CountryCode: customer.Phone.CountryCode,
		AreaCode:    customer.Phone.AreaCode,
		Number:      customer.Phone.Number,
	}
	return pc
}

func buildAddress(address DirectAddress) pagarmeAddress {
	return pagarmeAddress{
		Line1:   fmt.Sprintf("%s, %s, %s", address.Number, address.Street, address.Neighborhood),
		ZipCode: nonDigits.ReplaceAllString(address.Zip, ""),
		City:    address.City,
		State:   address.State,
		Country: address.Country,
	}
}

func (c *PagarmeClient) postOrder(ctx context.Context, payload interface{}) (*pagarmeOrderResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Gateway("failed to encode provider request", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Gateway("failed to build provider request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Gateway("provider request failed", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperrors.Gateway(fmt.Sprintf("provider returned %d", resp.StatusCode), true, readBodyErr(resp.Body))
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.Gateway(fmt.Sprintf("provider rejected request with %d", resp.StatusCode), false, readBodyErr(resp.Body))
	}

	var out pagarmeOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.Gateway("malformed provider response", false, err)
	}
	return &out, nil
}
