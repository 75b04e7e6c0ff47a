package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// Product represents a catalog listing managed through the back office.
type Product struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Name                string                    `gorm:"column:name;not null"`
	Slug                string                    `gorm:"column:slug;not null;uniqueIndex"`
	Description         *string                   `gorm:"column:description"`
	SKU                 *string                   `gorm:"column:sku"`
	ProductType         enums.ProductType         `gorm:"column:product_type;type:product_type;not null;default:'simple'"`
	StockManagementType enums.StockManagementType `gorm:"column:stock_management_type;type:stock_management_type;not null;default:'quantity'"`
	PriceCents          int64                     `gorm:"column:price_cents;not null;default:0"`
	CostCents           *int64                    `gorm:"column:cost_cents"`
	PricePerUnitCents   *int64                    `gorm:"column:price_per_unit_cents"`
	BaseWeightUnit      *enums.WeightUnit         `gorm:"column:base_weight_unit;type:weight_unit"`
	CategoryID          *uuid.UUID                `gorm:"column:category_id;type:uuid"`
	Tags                pq.StringArray            `gorm:"column:tags;type:text[]"`
	Images              pq.StringArray            `gorm:"column:images;type:text[]"`
	IsActive            bool                      `gorm:"column:is_active;not null;default:true"`
	Variants            []ProductVariant          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
