package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodPix        PaymentMethod = "pix"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodBoleto     PaymentMethod = "boleto"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Payment struct {
	ID      uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID     `gorm:"type:uuid;index;not null"`
	Method  PaymentMethod `gorm:"type:varchar(20);not null"`
	Status  PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Amount  int64         `gorm:"not null"` // minor currency units

	Provider         *string `gorm:"type:varchar(30)"`
	ProviderOrderID  *string `gorm:"type:varchar(100);index"`
	ProviderChargeID *string `gorm:"type:varchar(100)"`

	CheckoutURL *string `gorm:"type:varchar(1024)"`

	// Set once on confirmation; used for webhook replay detection.
	TransactionID     *string `gorm:"type:varchar(100);uniqueIndex"`
	PaymentMethodUsed *string `gorm:"type:varchar(30)"`

	Installments *int
	PixQRCode    *string `gorm:"type:text"`
	PixQRCodeURL *string `gorm:"type:varchar(1024)"`
	PixExpiresAt *time.Time

	PaidAt   *time.Time
	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Blocking reports whether this payment prevents creating another payment for
// the same order. A failed attempt may be retried with a new payment; anything
// else blocks.
func (p *Payment) Blocking() bool {
	return p.Status != PaymentFailed
}
