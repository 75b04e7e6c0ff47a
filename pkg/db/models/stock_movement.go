package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// StockMovement is one entry in the append-only stock ledger. Rows are never
// updated or deleted once written.
type StockMovement struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	InventoryRecordID   uuid.UUID          `gorm:"column:inventory_record_id;type:uuid;not null;index"`
	ProductID           uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID           *uuid.UUID         `gorm:"column:variant_id;type:uuid"`
	MovementType        enums.MovementType `gorm:"column:movement_type;type:movement_type;not null"`
	Quantity            *int               `gorm:"column:quantity"`
	PreviousQuantity    *int               `gorm:"column:previous_quantity"`
	NewQuantity         *int               `gorm:"column:new_quantity"`
	WeightGrams         *decimal.Decimal   `gorm:"column:weight_grams;type:numeric(14,3)"`
	PreviousWeightGrams *decimal.Decimal   `gorm:"column:previous_weight_grams;type:numeric(14,3)"`
	NewWeightGrams      *decimal.Decimal   `gorm:"column:new_weight_grams;type:numeric(14,3)"`
	Reason              string             `gorm:"column:reason;not null"`
	Reference           *string            `gorm:"column:reference"`
	Notes               *string            `gorm:"column:notes"`
	ProcessedBy         *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
}
