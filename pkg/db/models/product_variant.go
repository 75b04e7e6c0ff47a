package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a sellable variation of a variable product.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Title      string    `gorm:"column:title;not null"`
	SKU        *string   `gorm:"column:sku"`
	PriceCents int64     `gorm:"column:price_cents;not null;default:0"`
	CostCents  *int64    `gorm:"column:cost_cents"`
	Position   int       `gorm:"column:position;not null;default:0"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
