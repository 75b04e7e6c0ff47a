package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// OrderItem captures the snapshot of each line within an order.
type OrderItem struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID        `gorm:"column:variant_id;type:uuid"`
	ProductName    string            `gorm:"column:product_name;not null"`
	VariantTitle   *string           `gorm:"column:variant_title"`
	SKU            *string           `gorm:"column:sku"`
	Quantity       int               `gorm:"column:quantity;not null"`
	WeightGrams    *decimal.Decimal  `gorm:"column:weight_grams;type:numeric(14,3)"`
	WeightUnit     *enums.WeightUnit `gorm:"column:weight_unit;type:weight_unit"`
	PriceCents     int64             `gorm:"column:price_cents;not null"`
	TotalCents     int64             `gorm:"column:total_cents;not null"`
	CostCents      *int64            `gorm:"column:cost_cents"`
	TotalCostCents *int64            `gorm:"column:total_cost_cents"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}
