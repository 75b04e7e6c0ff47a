package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
	"github.com/shopfronthq/shopfront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines admin-facing inventory operations. Order-driven stock
// commits bypass this service and talk to the Engine directly.
type Service interface {
	UpsertRecord(ctx context.Context, input UpsertRecordInput) (*models.InventoryRecord, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	ListRecords(ctx context.Context, filter ListRecordsFilter) ([]models.InventoryRecord, error)
	ListMovements(ctx context.Context, filter ListMovementsFilter) ([]models.StockMovement, string, error)
}

type service struct {
	repo              Repository
	tx                txRunner
	outbox            outboxPublisher
	engine            *Engine
	lowStockThreshold int
}

// NewService builds an inventory service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, engine *Engine, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if engine == nil {
		engine = NewEngine()
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	return &service{
		repo:              repo,
		tx:                tx,
		outbox:            ob,
		engine:            engine,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

// UpsertRecord creates the inventory record for a (product, variant) pair or
// corrects an existing one. Available columns are recomputed from the stored
// totals so they never drift from quantity minus reservations.
func (s *service) UpsertRecord(ctx context.Context, input UpsertRecordInput) (*models.InventoryRecord, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.ReservedQuantity != nil && *input.ReservedQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserved quantity cannot be negative")
	}
	if input.WeightGrams != nil && input.WeightGrams.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}
	if input.ReservedWeightGrams != nil && input.ReservedWeightGrams.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserved weight cannot be negative")
	}

	var out *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindRecord(ctx, input.ProductID, input.VariantID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
			}
			record = &models.InventoryRecord{
				ID:        uuid.New(),
				ProductID: input.ProductID,
				VariantID: input.VariantID,
			}
			applyUpsert(record, input)
			if err := repo.CreateRecord(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory record")
			}
			out = record
			return nil
		}

		applyUpsert(record, input)
		updates := map[string]any{
			"quantity":               record.Quantity,
			"reserved_quantity":      record.ReservedQuantity,
			"available_quantity":     record.AvailableQuantity,
			"weight_grams":           record.WeightGrams,
			"reserved_weight_grams":  record.ReservedWeightGrams,
			"available_weight_grams": record.AvailableWeightGrams,
			"low_stock_threshold":    record.LowStockThreshold,
		}
		if err := repo.UpdateRecord(ctx, record.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory record")
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyUpsert(record *models.InventoryRecord, input UpsertRecordInput) {
	if input.Quantity != nil {
		record.Quantity = *input.Quantity
	}
	if input.ReservedQuantity != nil {
		record.ReservedQuantity = *input.ReservedQuantity
	}
	if input.WeightGrams != nil {
		record.WeightGrams = *input.WeightGrams
	}
	if input.ReservedWeightGrams != nil {
		record.ReservedWeightGrams = *input.ReservedWeightGrams
	}
	if input.LowStockThreshold != nil {
		record.LowStockThreshold = input.LowStockThreshold
	}
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	record.AvailableWeightGrams = record.WeightGrams.Sub(record.ReservedWeightGrams)
}

// Adjust records a manual stock movement. Outbound adjustments go through the
// same guarded deduction as order commits so they can never oversell.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error) {
	if err := validateAdjust(input); err != nil {
		return nil, err
	}

	var out *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindRecord(ctx, input.ProductID, input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
		}

		req, err := buildLineRequest(ctx, tx, record, input)
		if err != nil {
			return err
		}
		mv := MovementContext{
			Reason:      input.Reason,
			Notes:       input.Notes,
			ProcessedBy: input.ProcessedBy,
		}

		var movementID uuid.UUID
		switch input.MovementType {
		case enums.MovementOut:
			result, err := s.engine.Commit(ctx, tx, req, mv)
			if err != nil {
				return err
			}
			movementID = result.MovementID
		case enums.MovementIn:
			result, err := s.engine.Restock(ctx, tx, req, mv)
			if err != nil {
				return err
			}
			movementID = result.MovementID
		case enums.MovementAdjust:
			movement, err := s.applyAbsolute(ctx, tx, record, input, mv)
			if err != nil {
				return err
			}
			movementID = movement.ID
		default:
			return pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported movement type %q", input.MovementType)
		}

		var movement models.StockMovement
		if err := tx.WithContext(ctx).First(&movement, "id = ?", movementID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recorded movement")
		}
		if err := s.emitMovementRecorded(ctx, tx, &movement); err != nil {
			return err
		}
		if err := s.maybeEmitLowStock(ctx, tx, record.ID); err != nil {
			return err
		}
		out = &movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateAdjust(input AdjustInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if !input.MovementType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid movement type %q", input.MovementType)
	}
	hasQty := input.Quantity != nil
	hasWeight := input.WeightGrams != nil
	if hasQty == hasWeight {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of quantity or weight is required")
	}
	if input.MovementType != enums.MovementAdjust {
		if hasQty && *input.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if hasWeight && input.WeightGrams.LessThanOrEqual(decimal.Zero) {
			return pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
		}
		return nil
	}
	if hasQty && *input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjusted quantity cannot be negative")
	}
	if hasWeight && input.WeightGrams.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjusted weight cannot be negative")
	}
	return nil
}

// buildLineRequest resolves display names so engine error messages match what
// the order flow produces for the same product.
func buildLineRequest(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, input AdjustInput) (LineRequest, error) {
	req := LineRequest{
		ProductID: input.ProductID,
		VariantID: input.VariantID,
	}
	var product models.Product
	if err := tx.WithContext(ctx).Select("name").First(&product, "id = ?", input.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LineRequest{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return LineRequest{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	req.ProductName = product.Name
	if input.VariantID != nil {
		var variant models.ProductVariant
		if err := tx.WithContext(ctx).Select("title").First(&variant, "id = ?", *input.VariantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return LineRequest{}, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return LineRequest{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
		}
		req.VariantTitle = &variant.Title
	}
	if input.WeightGrams != nil {
		req.WeightBased = true
		req.WeightGrams = *input.WeightGrams
	} else if input.Quantity != nil {
		req.Quantity = *input.Quantity
	}
	return req, nil
}

// applyAbsolute overwrites the stored total with the counted value and records
// the delta in the ledger. Used for stocktake corrections.
func (s *service) applyAbsolute(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, input AdjustInput, mv MovementContext) (*models.StockMovement, error) {
	movement := models.StockMovement{
		ID:                uuid.New(),
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		MovementType:      enums.MovementAdjust,
		Reason:            mv.Reason,
		Notes:             mv.Notes,
		ProcessedBy:       mv.ProcessedBy,
	}
	if input.WeightGrams != nil {
		newWeight := *input.WeightGrams
		delta := newWeight.Sub(record.WeightGrams)
		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_records
			SET weight_grams = ?,
				available_weight_grams = ? - reserved_weight_grams,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, newWeight, newWeight, record.ID)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust weight stock")
		}
		prev := record.WeightGrams
		movement.WeightGrams = &delta
		movement.PreviousWeightGrams = &prev
		movement.NewWeightGrams = &newWeight
	} else {
		newQty := *input.Quantity
		delta := newQty - record.Quantity
		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_records
			SET quantity = ?,
				available_quantity = ? - reserved_quantity,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, newQty, newQty, record.ID)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust quantity stock")
		}
		prev := record.Quantity
		movement.Quantity = &delta
		movement.PreviousQuantity = &prev
		movement.NewQuantity = &newQty
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}
	return &movement, nil
}

func (s *service) emitMovementRecorded(ctx context.Context, tx *gorm.DB, movement *models.StockMovement) error {
	event := payloads.InventoryMovementRecordedEvent{
		MovementID:          movement.ID,
		InventoryRecordID:   movement.InventoryRecordID,
		ProductID:           movement.ProductID,
		VariantID:           movement.VariantID,
		MovementType:        movement.MovementType,
		Quantity:            movement.Quantity,
		PreviousQuantity:    movement.PreviousQuantity,
		NewQuantity:         movement.NewQuantity,
		WeightGrams:         movement.WeightGrams,
		PreviousWeightGrams: movement.PreviousWeightGrams,
		NewWeightGrams:      movement.NewWeightGrams,
		Reason:              movement.Reason,
		Reference:           movement.Reference,
	}
	var actor *outbox.ActorRef
	if movement.ProcessedBy != nil {
		actor = &outbox.ActorRef{UserID: *movement.ProcessedBy}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryMovementRecorded,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   movement.InventoryRecordID,
		Actor:         actor,
		Data:          event,
		Version:       1,
		OccurredAt:    time.Now(),
	})
}

// maybeEmitLowStock rereads the record after a mutation and queues a warning
// when quantity sits at or below the effective threshold.
func (s *service) maybeEmitLowStock(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error {
	var record models.InventoryRecord
	if err := tx.WithContext(ctx).First(&record, "id = ?", recordID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory record")
	}
	threshold := s.lowStockThreshold
	if record.LowStockThreshold != nil {
		threshold = *record.LowStockThreshold
	}
	if record.Quantity > threshold {
		return nil
	}
	event := payloads.InventoryLowStockEvent{
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		Quantity:          record.Quantity,
		AvailableQuantity: quantityAvailable(&record),
		Threshold:         threshold,
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryLowStock,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   record.ID,
		Data:          event,
		Version:       1,
		OccurredAt:    time.Now(),
	})
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.repo.FindRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record, nil
}

func (s *service) ListRecords(ctx context.Context, filter ListRecordsFilter) ([]models.InventoryRecord, error) {
	if filter.LowStock && filter.Threshold <= 0 {
		filter.Threshold = s.lowStockThreshold
	}
	records, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory records")
	}
	return records, nil
}

func (s *service) ListMovements(ctx context.Context, filter ListMovementsFilter) ([]models.StockMovement, string, error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filter.Limit)
	movements, err := s.repo.ListMovements(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	next := ""
	if len(movements) > limit {
		movements = movements[:limit]
		last := movements[len(movements)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return movements, next, nil
}
