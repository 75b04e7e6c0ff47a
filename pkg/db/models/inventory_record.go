package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord tracks on-hand stock for a product or a specific variant.
// A NULL variant_id means the record covers the base product only; variant
// records never satisfy base-product lookups and vice versa.
type InventoryRecord struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID            uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_inventory_product_variant"`
	VariantID            *uuid.UUID      `gorm:"column:variant_id;type:uuid;uniqueIndex:ux_inventory_product_variant"`
	Quantity             int             `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity     int             `gorm:"column:reserved_quantity;not null;default:0"`
	AvailableQuantity    int             `gorm:"column:available_quantity;not null;default:0"`
	WeightGrams          decimal.Decimal `gorm:"column:weight_grams;type:numeric(14,3);not null;default:0"`
	ReservedWeightGrams  decimal.Decimal `gorm:"column:reserved_weight_grams;type:numeric(14,3);not null;default:0"`
	AvailableWeightGrams decimal.Decimal `gorm:"column:available_weight_grams;type:numeric(14,3);not null;default:0"`
	LowStockThreshold    *int            `gorm:"column:low_stock_threshold"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
