package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"checkout-service/apperrors"

	"go.uber.org/zap"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 1 * time.Second
)

// LinkItem is a line item sent to the hosted-checkout API. Price is in minor
// currency units.
type LinkItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

type LinkCustomer struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

type LinkAddress struct {
	Zip        string  `json:"zip"`
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	Complement *string `json:"complement,omitempty"`
}

// CheckoutLink is the provider-hosted payment page for one order.
type CheckoutLink struct {
	URL      string
	OrderNSU string
}

// PaymentCheck is the provider's current view of a payment, returned by the
// on-demand status poll.
type PaymentCheck struct {
	OrderNSU      string
	Status        string
	PaymentMethod *string
	TransactionID *string
	Amount        *int64
	PaidAt        *time.Time
}

type InfinitePayConfig struct {
	BaseURL     string
	Handle      string
	WebhookURL  string
	RedirectURL string

	Timeout        time.Duration // per-call bound; 0 means 30s
	MaxRetries     int           // 0 means 3
	RetryBaseDelay time.Duration // attempt k waits k×base; 0 means 1s
}

// InfinitePayClient wraps the InfinitePay hosted-checkout HTTP API.
// The merchant order id is always sent as order_nsu, the provider-side
// idempotency key, so repeated calls for the same order never create a
// duplicate remote charge.
type InfinitePayClient struct {
	cfg        InfinitePayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewInfinitePayClient(cfg InfinitePayConfig, logger *zap.Logger) *InfinitePayClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	cfg.Handle = strings.TrimPrefix(cfg.Handle, "$")

	return &InfinitePayClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type checkoutLinkRequest struct {
	Handle      string        `json:"handle"`
	Items       []LinkItem    `json:"items"`
	OrderNSU    string        `json:"order_nsu"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	WebhookURL  string        `json:"webhook_url,omitempty"`
	Customer    *LinkCustomer `json:"customer,omitempty"`
	Address     *LinkAddress  `json:"address,omitempty"`
}

type checkoutLinkResponse struct {
	URL         string `json:"url"`
	CheckoutURL string `json:"checkout_url"`
	OrderNSU    string `json:"order_nsu"`
}

// CreateCheckoutLink creates a hosted checkout session for the order and
// returns the payment page URL.
func (c *InfinitePayClient) CreateCheckoutLink(ctx context.Context, orderID string, items []LinkItem, customer *LinkCustomer, address *LinkAddress) (*CheckoutLink, error) {
	payload := checkoutLinkRequest{
		Handle:      c.cfg.Handle,
		Items:       items,
		OrderNSU:    orderID,
		RedirectURL: c.cfg.RedirectURL,
		WebhookURL:  c.cfg.WebhookURL,
		Customer:    customer,
		Address:     address,
	}

	c.logger.Info("Creating InfinitePay checkout link",
		zap.String("order_nsu", orderID),
		zap.Int("items", len(items)),
	)

	var resp checkoutLinkResponse
	if err := c.postWithRetry(ctx, "/invoices/public/checkout/links", payload, &resp); err != nil {
		return nil, err
	}

	url := resp.URL
	if url == "" {
		url = resp.CheckoutURL
	}
	if url == "" {
		return nil, apperrors.Gateway("checkout link missing from provider response", false, nil)
	}

	c.logger.Info("InfinitePay checkout link created",
		zap.String("order_nsu", orderID),
		zap.String("checkout_url", url),
	)

	return &CheckoutLink{URL: url, OrderNSU: resp.OrderNSU}, nil
}

type paymentCheckRequest struct {
	OrderNSU string `json:"order_nsu"`
}

type paymentCheckResponse struct {
	OrderNSU      string  `json:"order_nsu"`
	Status        string  `json:"status"`
	PaymentMethod *string `json:"payment_method"`
	TransactionID *string `json:"transaction_id"`
	Amount        *int64  `json:"amount"`
	PaidAt        *string `json:"paid_at"`
}

// CheckPaymentStatus polls the provider for the payment outcome of an order.
// Used as a fallback when the webhook is delayed or lost.
func (c *InfinitePayClient) CheckPaymentStatus(ctx context.Context, orderID string) (*PaymentCheck, error) {
	var resp paymentCheckResponse
	if err := c.postWithRetry(ctx, "/invoices/public/checkout/payment_check", paymentCheckRequest{OrderNSU: orderID}, &resp); err != nil {
		return nil, err
	}

	check := &PaymentCheck{
		OrderNSU:      resp.OrderNSU,
		Status:        resp.Status,
		PaymentMethod: resp.PaymentMethod,
		TransactionID: resp.TransactionID,
		Amount:        resp.Amount,
	}
	if resp.PaidAt != nil && *resp.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, *resp.PaidAt)
		if err == nil {
			check.PaidAt = &t
		}
	}

	c.logger.Info("InfinitePay payment status",
		zap.String("order_nsu", orderID),
		zap.String("status", check.Status),
	)

	return check, nil
}

// postWithRetry retries transient failures up to the configured bound, with a
// delay growing linearly with the attempt number. Fatal failures (4xx,
// malformed response) return immediately.
func (c *InfinitePayClient) postWithRetry(ctx context.Context, path string, payload, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		err := c.post(ctx, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		appErr := apperrors.AsError(err)
		if !appErr.Retryable || attempt == c.cfg.MaxRetries {
			break
		}

		c.logger.Warn("InfinitePay request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err),
		)

		select {
		case <-time.After(time.Duration(attempt) * c.cfg.RetryBaseDelay):
		case <-ctx.Done():
			return apperrors.Gateway("gateway request cancelled", true, ctx.Err())
		}
	}
	return lastErr
}

func (c *InfinitePayClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Gateway("failed to encode gateway request", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Gateway("failed to build gateway request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection refused, timeout, DNS failure: all transient.
		return apperrors.Gateway("gateway request failed", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.Gateway(fmt.Sprintf("gateway returned %d", resp.StatusCode), true, readBodyErr(resp.Body))
	}
	if resp.StatusCode >= 400 {
		return apperrors.Gateway(fmt.Sprintf("gateway rejected request with %d", resp.StatusCode), false, readBodyErr(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Gateway("malformed gateway response", false, err)
	}
	return nil
}

func readBodyErr(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(b) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.TrimSpace(string(b)))
}
