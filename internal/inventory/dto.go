package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// LineRequest describes one order line the engine must check and commit.
// WeightGrams is canonical grams; unit conversion happens before the engine.
type LineRequest struct {
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	ProductName  string
	VariantTitle *string
	Quantity     int
	WeightGrams  decimal.Decimal
	WeightBased  bool
}

// DisplayName renders the product name with its variant suffix for messages.
func (r LineRequest) DisplayName() string {
	if r.VariantTitle != nil && *r.VariantTitle != "" {
		return fmt.Sprintf("%s (%s)", r.ProductName, *r.VariantTitle)
	}
	return r.ProductName
}

// MovementContext carries the audit fields written with each committed line.
type MovementContext struct {
	Reason      string
	Reference   string
	Notes       *string
	ProcessedBy *uuid.UUID
}

// CommitResult reports the stock transition recorded for one line.
type CommitResult struct {
	RecordID            uuid.UUID
	MovementID          uuid.UUID
	PreviousQuantity    int
	NewQuantity         int
	NewAvailable        int
	PreviousWeightGrams decimal.Decimal
	NewWeightGrams      decimal.Decimal
	NewAvailableGrams   decimal.Decimal
}

// UpsertRecordInput provisions or corrects an inventory record.
type UpsertRecordInput struct {
	ProductID           uuid.UUID
	VariantID           *uuid.UUID
	Quantity            *int
	ReservedQuantity    *int
	WeightGrams         *decimal.Decimal
	ReservedWeightGrams *decimal.Decimal
	LowStockThreshold   *int
}

// AdjustInput records a manual stock movement outside of order flow.
type AdjustInput struct {
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	MovementType enums.MovementType
	Quantity     *int
	WeightGrams  *decimal.Decimal
	Reason       string
	Notes        *string
	ProcessedBy  *uuid.UUID
}

// ListRecordsFilter narrows inventory record listings.
type ListRecordsFilter struct {
	ProductID *uuid.UUID
	LowStock  bool
	Threshold int
}

// ListMovementsFilter narrows ledger listings.
type ListMovementsFilter struct {
	ProductID    *uuid.UUID
	RecordID     *uuid.UUID
	MovementType *enums.MovementType
	Limit        int
	Cursor       string
}
