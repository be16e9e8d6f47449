package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

// ShippingAddress is stored on the order as a jsonb snapshot.
type ShippingAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
	Complement   string `json:"complement,omitempty"`
}

type Order struct {
	ID     uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID  `gorm:"type:uuid;index"` // nil for anonymous checkout
	Status OrderStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Total  int64       `gorm:"not null"` // minor currency units

	// Customer contact snapshot captured at checkout time.
	CustomerEmail *string `gorm:"type:varchar(255)"`
	CustomerName  *string `gorm:"type:varchar(255)"`
	CustomerPhone *string `gorm:"type:varchar(32)"`

	ShippingAddress *ShippingAddress `gorm:"serializer:json;type:jsonb"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID   string    `gorm:"type:varchar(100);not null"`
	ProductName string    `gorm:"type:varchar(255);not null"` // denormalized snapshot
	Quantity    int       `gorm:"not null"`
	UnitPrice   int64     `gorm:"not null"` // minor units, as charged at checkout
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
