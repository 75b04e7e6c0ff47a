package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
)

// Movement reasons written by the order flow.
const (
	ReasonOrderCreated   = "Order Created - Stock Sold"
	ReasonOrderCancelled = "Order Cancelled - Stock Returned"
)

// Engine checks and mutates stock inside a caller-owned transaction. Validate
// never writes; Commit performs a single guarded update plus one ledger append.
// The engine never begins or commits transactions itself.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ValidateAll checks every line before any stock is touched. Failures across
// lines are aggregated so the caller can surface all problems at once.
func (e *Engine) ValidateAll(ctx context.Context, tx *gorm.DB, reqs []LineRequest) error {
	var errs []error
	for _, req := range reqs {
		if err := e.Validate(ctx, tx, req); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	combined := multierr.Combine(errs...)
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, combined.Error())
}

// Validate checks a single line against current stock without mutating it.
func (e *Engine) Validate(ctx context.Context, tx *gorm.DB, req LineRequest) error {
	if err := checkRequestShape(req); err != nil {
		return err
	}

	record, err := findRecord(ctx, tx, req.ProductID, req.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, missingRecordMessage(req))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}

	if req.WeightBased {
		return checkWeightAvailability(record, req, pkgerrors.CodeValidation)
	}
	return checkQuantityAvailability(record, req, pkgerrors.CodeValidation)
}

// Commit deducts stock for one line and appends the audit movement. The
// deduction is a guarded conditional update: if stock moved after Validate,
// zero rows match and the line fails hard, aborting the caller's transaction.
func (e *Engine) Commit(ctx context.Context, tx *gorm.DB, req LineRequest, mv MovementContext) (CommitResult, error) {
	if tx == nil {
		return CommitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock commit")
	}
	if err := checkRequestShape(req); err != nil {
		return CommitResult{}, err
	}

	record, err := findRecord(ctx, tx, req.ProductID, req.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The record vanished between validation and commit.
			return CommitResult{}, pkgerrors.New(pkgerrors.CodeConflict, missingRecordMessage(req))
		}
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}

	if req.WeightBased {
		return e.commitWeight(ctx, tx, record, req, mv)
	}
	return e.commitQuantity(ctx, tx, record, req, mv)
}

// Restock returns stock for one line (order cancellation) and appends an
// inbound movement.
func (e *Engine) Restock(ctx context.Context, tx *gorm.DB, req LineRequest, mv MovementContext) (CommitResult, error) {
	if tx == nil {
		return CommitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}
	if err := checkRequestShape(req); err != nil {
		return CommitResult{}, err
	}

	record, err := findRecord(ctx, tx, req.ProductID, req.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommitResult{}, pkgerrors.New(pkgerrors.CodeConflict, missingRecordMessage(req))
		}
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}

	if req.WeightBased {
		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_records
			SET weight_grams = weight_grams + ?,
				available_weight_grams = weight_grams + ? - reserved_weight_grams,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, req.WeightGrams, req.WeightGrams, record.ID)
		if res.Error != nil {
			return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock weight")
		}
		newWeight := record.WeightGrams.Add(req.WeightGrams)
		movement, err := appendMovement(ctx, tx, record, req, mv, enums.MovementIn, record.WeightGrams, newWeight, 0, 0)
		if err != nil {
			return CommitResult{}, err
		}
		return CommitResult{
			RecordID:            record.ID,
			MovementID:          movement.ID,
			PreviousWeightGrams: record.WeightGrams,
			NewWeightGrams:      newWeight,
			NewAvailableGrams:   newWeight.Sub(record.ReservedWeightGrams),
		}, nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET quantity = quantity + ?,
			available_quantity = quantity + ? - reserved_quantity,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, req.Quantity, req.Quantity, record.ID)
	if res.Error != nil {
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock quantity")
	}
	newQty := record.Quantity + req.Quantity
	movement, err := appendMovement(ctx, tx, record, req, mv, enums.MovementIn, decimal.Zero, decimal.Zero, record.Quantity, newQty)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{
		RecordID:         record.ID,
		MovementID:       movement.ID,
		PreviousQuantity: record.Quantity,
		NewQuantity:      newQty,
		NewAvailable:     newQty - record.ReservedQuantity,
	}, nil
}

func (e *Engine) commitQuantity(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, req LineRequest, mv MovementContext) (CommitResult, error) {
	if err := checkQuantityAvailability(record, req, pkgerrors.CodeConflict); err != nil {
		return CommitResult{}, err
	}

	// The WHERE guard repeats the availability predicate so a concurrent sale
	// between Validate and Commit matches zero rows instead of going negative.
	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET quantity = quantity - ?,
			available_quantity = quantity - ? - reserved_quantity,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND quantity > 0
		  AND (CASE WHEN available_quantity > 0 THEN available_quantity ELSE quantity - reserved_quantity END) >= ?
	`, req.Quantity, req.Quantity, record.ID, req.Quantity)
	if res.Error != nil {
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
	}
	if res.RowsAffected == 0 {
		return CommitResult{}, e.quantityConflict(ctx, tx, req, record.ID)
	}

	newQty := record.Quantity - req.Quantity
	movement, err := appendMovement(ctx, tx, record, req, mv, enums.MovementOut, decimal.Zero, decimal.Zero, record.Quantity, newQty)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{
		RecordID:         record.ID,
		MovementID:       movement.ID,
		PreviousQuantity: record.Quantity,
		NewQuantity:      newQty,
		NewAvailable:     newQty - record.ReservedQuantity,
	}, nil
}

func (e *Engine) commitWeight(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, req LineRequest, mv MovementContext) (CommitResult, error) {
	if err := checkWeightAvailability(record, req, pkgerrors.CodeConflict); err != nil {
		return CommitResult{}, err
	}

	// The guard compares bare columns, not a CASE expression: CASE carries no
	// column affinity under sqlite and the bound decimal would compare as text.
	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET weight_grams = weight_grams - ?,
			available_weight_grams = weight_grams - ? - reserved_weight_grams,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND weight_grams > 0
		  AND (available_weight_grams >= ?
		       OR (available_weight_grams <= 0 AND weight_grams - reserved_weight_grams >= ?))
	`, req.WeightGrams, req.WeightGrams, record.ID, req.WeightGrams, req.WeightGrams)
	if res.Error != nil {
		return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct weight stock")
	}
	if res.RowsAffected == 0 {
		return CommitResult{}, e.weightConflict(ctx, tx, req, record.ID)
	}

	newWeight := record.WeightGrams.Sub(req.WeightGrams)
	movement, err := appendMovement(ctx, tx, record, req, mv, enums.MovementOut, record.WeightGrams, newWeight, 0, 0)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{
		RecordID:            record.ID,
		MovementID:          movement.ID,
		PreviousWeightGrams: record.WeightGrams,
		NewWeightGrams:      newWeight,
		NewAvailableGrams:   newWeight.Sub(record.ReservedWeightGrams),
	}, nil
}

func (e *Engine) quantityConflict(ctx context.Context, tx *gorm.DB, req LineRequest, recordID uuid.UUID) error {
	var fresh models.InventoryRecord
	if err := tx.WithContext(ctx).First(&fresh, "id = ?", recordID).Error; err != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, missingRecordMessage(req))
	}
	if fresh.Quantity <= 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is out of stock. Total quantity: %d", req.DisplayName(), fresh.Quantity)
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "Insufficient stock for %s. Available: %d, Requested: %d",
		req.DisplayName(), quantityAvailable(&fresh), req.Quantity)
}

func (e *Engine) weightConflict(ctx context.Context, tx *gorm.DB, req LineRequest, recordID uuid.UUID) error {
	var fresh models.InventoryRecord
	if err := tx.WithContext(ctx).First(&fresh, "id = ?", recordID).Error; err != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, missingRecordMessage(req))
	}
	if fresh.WeightGrams.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is out of stock. Total weight: %sg", req.DisplayName(), fresh.WeightGrams)
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "Insufficient stock for %s. Available: %sg, Requested: %sg",
		req.DisplayName(), weightAvailable(&fresh), req.WeightGrams)
}

func checkRequestShape(req LineRequest) error {
	if req.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if req.WeightBased {
		if req.WeightGrams.LessThanOrEqual(decimal.Zero) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "requested weight for %s must be positive", req.DisplayName())
		}
		return nil
	}
	if req.Quantity <= 0 {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "requested quantity for %s must be positive", req.DisplayName())
	}
	return nil
}

func checkQuantityAvailability(record *models.InventoryRecord, req LineRequest, code pkgerrors.Code) error {
	if record.Quantity <= 0 {
		return pkgerrors.Newf(code, "%s is out of stock. Total quantity: %d", req.DisplayName(), record.Quantity)
	}
	available := quantityAvailable(record)
	if available < req.Quantity {
		return pkgerrors.Newf(code, "Insufficient stock for %s. Available: %d, Requested: %d",
			req.DisplayName(), available, req.Quantity)
	}
	return nil
}

func checkWeightAvailability(record *models.InventoryRecord, req LineRequest, code pkgerrors.Code) error {
	if record.WeightGrams.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.Newf(code, "%s is out of stock. Total weight: %sg", req.DisplayName(), record.WeightGrams)
	}
	available := weightAvailable(record)
	if available.LessThan(req.WeightGrams) {
		return pkgerrors.Newf(code, "Insufficient stock for %s. Available: %sg, Requested: %sg",
			req.DisplayName(), available, req.WeightGrams)
	}
	return nil
}

// quantityAvailable mirrors the ledger convention: a zero available column
// falls back to quantity minus reservations.
func quantityAvailable(record *models.InventoryRecord) int {
	if record.AvailableQuantity > 0 {
		return record.AvailableQuantity
	}
	return record.Quantity - record.ReservedQuantity
}

func weightAvailable(record *models.InventoryRecord) decimal.Decimal {
	if record.AvailableWeightGrams.GreaterThan(decimal.Zero) {
		return record.AvailableWeightGrams
	}
	return record.WeightGrams.Sub(record.ReservedWeightGrams)
}

// findRecord resolves the exact (product, variant) record. A nil variant only
// matches rows where variant_id IS NULL; there is no cross-variant fallback.
func findRecord(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryRecord, error) {
	query := tx.WithContext(ctx).Where("product_id = ?", productID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}
	var record models.InventoryRecord
	if err := query.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func missingRecordMessage(req LineRequest) string {
	return fmt.Sprintf("No inventory record found for %s. Please create an inventory record first or disable stock management.", req.DisplayName())
}

func appendMovement(
	ctx context.Context,
	tx *gorm.DB,
	record *models.InventoryRecord,
	req LineRequest,
	mv MovementContext,
	movementType enums.MovementType,
	prevWeight, newWeight decimal.Decimal,
	prevQty, newQty int,
) (*models.StockMovement, error) {
	movement := models.StockMovement{
		ID:                uuid.New(),
		InventoryRecordID: record.ID,
		ProductID:         req.ProductID,
		VariantID:         req.VariantID,
		MovementType:      movementType,
		Reason:            mv.Reason,
		Notes:             mv.Notes,
		ProcessedBy:       mv.ProcessedBy,
	}
	if mv.Reference != "" {
		ref := mv.Reference
		movement.Reference = &ref
	}
	if req.WeightBased {
		grams := req.WeightGrams
		prev := prevWeight
		next := newWeight
		movement.WeightGrams = &grams
		movement.PreviousWeightGrams = &prev
		movement.NewWeightGrams = &next
	} else {
		qty := req.Quantity
		prev := prevQty
		next := newQty
		movement.Quantity = &qty
		movement.PreviousQuantity = &prev
		movement.NewQuantity = &next
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}
	return &movement, nil
}
