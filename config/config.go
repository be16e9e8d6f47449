package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port             string
	GoEnv            string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	// InfinitePay hosted-checkout gateway
	InfinitePayAPIURL string
	InfinitePayHandle string
	BackendURL        string // public base URL; webhook callback is derived from it
	FrontendURL       string // success redirect after hosted checkout

	// Pagar.me direct-payment gateway
	PagarmeAPIURL    string
	PagarmeSecretKey string

	// Event fan-out
	KafkaBrokers       string
	PaymentEventsTopic string
	PaymentSNSTopicARN string // optional; SNS publishing is skipped when empty
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		GoEnv:            getEnv("GO_ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "America/Sao_Paulo"),

		InfinitePayAPIURL: getEnv("INFINITEPAY_API_URL", "https://api.infinitepay.io"),
		InfinitePayHandle: os.Getenv("INFINITEPAY_HANDLE"),
		BackendURL:        os.Getenv("BACKEND_URL"),
		FrontendURL:       os.Getenv("FRONTEND_URL"),

		PagarmeAPIURL:    getEnv("PAGARME_API_URL", "https://api.pagar.me/core/v5"),
		PagarmeSecretKey: os.Getenv("PAGARME_SECRET_KEY"),

		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		PaymentEventsTopic: getEnv("PAYMENT_EVENTS_TOPIC", "payment.events"),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.InfinitePayHandle == "" {
		return nil, fmt.Errorf("INFINITEPAY_HANDLE is required")
	}
	if cfg.PagarmeSecretKey == "" {
		return nil, fmt.Errorf("PAGARME_SECRET_KEY is required")
	}

	return cfg, nil
}

// WebhookURL returns the public callback URL registered with InfinitePay,
// or "" when BACKEND_URL is not configured.
func (c *Config) WebhookURL() string {
	if c.BackendURL == "" {
		return ""
	}
	return c.BackendURL + "/api/webhooks/infinitepay"
}

// RedirectURL returns the customer-facing success page, or "".
func (c *Config) RedirectURL() string {
	if c.FrontendURL == "" {
		return ""
	}
	return c.FrontendURL + "/checkout/success"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
