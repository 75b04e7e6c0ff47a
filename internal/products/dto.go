package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// VariantInput describes one variant supplied on create or update. A nil ID
// creates a new variant; a set ID updates the existing one.
type VariantInput struct {
	ID         *uuid.UUID
	Title      string
	SKU        *string
	PriceCents int64
	CostCents  *int64
	Position   int
}

// CreateProductInput holds the validated payload to create a product. The
// initial stock fields seed inventory records in the same transaction.
type CreateProductInput struct {
	Name                string
	Description         *string
	SKU                 *string
	ProductType         enums.ProductType
	StockManagementType enums.StockManagementType
	PriceCents          int64
	CostCents           *int64
	PricePerUnitCents   *int64
	BaseWeightUnit      *enums.WeightUnit
	CategoryID          *uuid.UUID
	Tags                []string
	Images              []string
	Variants            []VariantInput
	InitialQuantity     *int
	InitialWeightGrams  *decimal.Decimal
}

// UpdateProductInput holds optional mutation values; nil fields are untouched.
type UpdateProductInput struct {
	Name              *string
	Description       *string
	SKU               *string
	PriceCents        *int64
	CostCents         *int64
	PricePerUnitCents *int64
	CategoryID        *uuid.UUID
	Tags              []string
	Images            []string
	IsActive          *bool
	Variants          []VariantInput
}

// ListProductsFilter describes the supported filter knobs for listings.
type ListProductsFilter struct {
	Search     string
	CategoryID *uuid.UUID
	IsActive   *bool
	Limit      int
	Cursor     string
}

// StockSummary aggregates inventory across all of a product's records.
type StockSummary struct {
	TotalQuantity    int
	TotalWeightGrams decimal.Decimal
	RecordCount      int
}

// ProductWithStock is one listing row with its aggregated stock.
type ProductWithStock struct {
	Product models.Product
	Stock   StockSummary
}

// ProductList is a cursor page of listing rows.
type ProductList struct {
	Items      []ProductWithStock
	NextCursor string
}

// ResolvedLine is the read-only product view the order flow builds stock
// requests from.
type ResolvedLine struct {
	ProductID           uuid.UUID
	VariantID           *uuid.UUID
	Name                string
	VariantTitle        *string
	PriceCents          int64
	StockManagementType enums.StockManagementType
	BaseWeightUnit      enums.WeightUnit
}

// WeightBased reports whether the line's stock is tracked in grams.
func (l ResolvedLine) WeightBased() bool {
	return l.StockManagementType.IsWeightBased()
}
