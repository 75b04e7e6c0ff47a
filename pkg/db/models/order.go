package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/types"
)

// Order is a back-office order with its monetary totals snapshotted in cents.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber       string                  `gorm:"column:order_number;not null;uniqueIndex"`
	Email             string                  `gorm:"column:email;not null"`
	Phone             *string                 `gorm:"column:phone"`
	Status            enums.OrderStatus       `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:fulfillment_status;not null;default:'unfulfilled'"`
	Currency          string                  `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents     int64                   `gorm:"column:subtotal_cents;not null;default:0"`
	TaxCents          int64                   `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents     int64                   `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents     int64                   `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int64                   `gorm:"column:total_cents;not null;default:0"`
	BillingAddress    types.Address           `gorm:"embedded;embeddedPrefix:billing_"`
	ShippingAddress   types.Address           `gorm:"embedded;embeddedPrefix:shipping_"`
	Notes             *string                 `gorm:"column:notes"`
	CreatedBy         *uuid.UUID              `gorm:"column:created_by;type:uuid"`
	Items             []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
