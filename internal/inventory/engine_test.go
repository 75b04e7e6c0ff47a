package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryRecord{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, record models.InventoryRecord) models.InventoryRecord {
	t.Helper()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func quantityLine(productID uuid.UUID, qty int) LineRequest {
	return LineRequest{
		ProductID:   productID,
		ProductName: "Test Product",
		Quantity:    qty,
	}
}

func TestCommitDeductsStockAndAppendsMovement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          10,
		ReservedQuantity:  2,
		AvailableQuantity: 8,
	})

	req := quantityLine(productID, 5)
	mv := MovementContext{Reason: ReasonOrderCreated, Reference: "ORD-1001"}

	var result CommitResult
	err := db.Transaction(func(tx *gorm.DB) error {
		if verr := engine.Validate(ctx, tx, req); verr != nil {
			return verr
		}
		var cerr error
		result, cerr = engine.Commit(ctx, tx, req, mv)
		return cerr
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if result.PreviousQuantity != 10 || result.NewQuantity != 5 || result.NewAvailable != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var record models.InventoryRecord
	if err := db.First(&record, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Quantity != 5 || record.AvailableQuantity != 3 || record.ReservedQuantity != 2 {
		t.Fatalf("unexpected record state: %+v", record)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "id = ?", result.MovementID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.MovementType != enums.MovementOut {
		t.Fatalf("expected out movement, got %s", movement.MovementType)
	}
	if movement.Quantity == nil || *movement.Quantity != 5 {
		t.Fatalf("unexpected movement quantity: %+v", movement.Quantity)
	}
	if movement.PreviousQuantity == nil || *movement.PreviousQuantity != 10 {
		t.Fatalf("unexpected previous quantity")
	}
	if movement.NewQuantity == nil || *movement.NewQuantity != 5 {
		t.Fatalf("unexpected new quantity")
	}
	if movement.Reason != ReasonOrderCreated {
		t.Fatalf("unexpected reason %q", movement.Reason)
	}
	if movement.Reference == nil || *movement.Reference != "ORD-1001" {
		t.Fatalf("unexpected reference")
	}
}

func TestValidateRejectsInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          10,
		ReservedQuantity:  2,
		AvailableQuantity: 8,
	})

	err := engine.Validate(ctx, db, quantityLine(productID, 9))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 8, Requested: 9") {
		t.Fatalf("unexpected message: %v", err)
	}

	// Nothing was written.
	var count int64
	if err := db.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no movements, got %d", count)
	}
}

func TestValidateZeroQuantityIsOutOfStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          0,
		AvailableQuantity: 0,
	})

	err := engine.Validate(ctx, db, quantityLine(productID, 1))
	if err == nil {
		t.Fatal("expected out of stock error")
	}
	if !strings.Contains(err.Error(), "out of stock") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateMissingRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()

	err := engine.Validate(ctx, db, quantityLine(uuid.New(), 1))
	if err == nil {
		t.Fatal("expected missing record error")
	}
	if !strings.Contains(err.Error(), "No inventory record found") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestNilVariantDoesNotMatchVariantRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	variantID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		VariantID:         &variantID,
		Quantity:          10,
		AvailableQuantity: 10,
	})

	// Base-product request must not see the variant record.
	err := engine.Validate(ctx, db, quantityLine(productID, 1))
	if err == nil {
		t.Fatal("expected missing record error for base product")
	}

	// The variant request resolves normally.
	req := quantityLine(productID, 1)
	req.VariantID = &variantID
	if err := engine.Validate(ctx, db, req); err != nil {
		t.Fatalf("variant validate: %v", err)
	}

	// A different variant id does not match either.
	otherVariant := uuid.New()
	req.VariantID = &otherVariant
	if err := engine.Validate(ctx, db, req); err == nil {
		t.Fatal("expected missing record error for other variant")
	}
}

func TestWeightBranchBoundary(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:            productID,
		WeightGrams:          decimal.NewFromInt(500),
		ReservedWeightGrams:  decimal.NewFromInt(50),
		AvailableWeightGrams: decimal.NewFromInt(450),
	})

	exact := LineRequest{
		ProductID:   productID,
		ProductName: "Bulk Beans",
		WeightGrams: decimal.NewFromInt(450),
		WeightBased: true,
	}
	mv := MovementContext{Reason: ReasonOrderCreated, Reference: "ORD-2001"}

	var result CommitResult
	err := db.Transaction(func(tx *gorm.DB) error {
		if verr := engine.Validate(ctx, tx, exact); verr != nil {
			return verr
		}
		var cerr error
		result, cerr = engine.Commit(ctx, tx, exact, mv)
		return cerr
	})
	if err != nil {
		t.Fatalf("commit exact weight: %v", err)
	}
	if !result.NewWeightGrams.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected new weight: %s", result.NewWeightGrams)
	}
	if !result.NewAvailableGrams.Equal(decimal.Zero) {
		t.Fatalf("unexpected new available weight: %s", result.NewAvailableGrams)
	}

	// One gram over available must be rejected.
	db2 := newTestDB(t)
	product2 := uuid.New()
	seedRecord(t, db2, models.InventoryRecord{
		ProductID:            product2,
		WeightGrams:          decimal.NewFromInt(500),
		ReservedWeightGrams:  decimal.NewFromInt(50),
		AvailableWeightGrams: decimal.NewFromInt(450),
	})
	over := LineRequest{
		ProductID:   product2,
		ProductName: "Bulk Beans",
		WeightGrams: decimal.NewFromInt(451),
		WeightBased: true,
	}
	verr := engine.Validate(ctx, db2, over)
	if verr == nil {
		t.Fatal("expected weight validation error")
	}
	if !strings.Contains(verr.Error(), "Available: 450") {
		t.Fatalf("unexpected message: %v", verr)
	}
}

func TestCommitWeightFallsBackWhenAvailableUnset(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:           productID,
		WeightGrams:         decimal.NewFromInt(500),
		ReservedWeightGrams: decimal.NewFromInt(50),
	})

	req := LineRequest{
		ProductID:   productID,
		ProductName: "Bulk Beans",
		WeightGrams: decimal.NewFromInt(450),
		WeightBased: true,
	}
	mv := MovementContext{Reason: ReasonOrderCreated, Reference: "ORD-2002"}

	var result CommitResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var cerr error
		result, cerr = engine.Commit(ctx, tx, req, mv)
		return cerr
	})
	if err != nil {
		t.Fatalf("commit with unset available weight: %v", err)
	}
	if !result.NewWeightGrams.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected new weight: %s", result.NewWeightGrams)
	}
}

func TestConcurrentCommitOnlyOneWins(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          10,
		AvailableQuantity: 10,
	})

	req := quantityLine(productID, 6)
	mv := MovementContext{Reason: ReasonOrderCreated, Reference: "ORD-3001"}

	// Both requests validate against the same snapshot.
	if err := engine.Validate(ctx, db, req); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if err := engine.Validate(ctx, db, req); err != nil {
		t.Fatalf("second validate: %v", err)
	}

	if _, err := engine.Commit(ctx, db, req, mv); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	_, err := engine.Commit(ctx, db, req, mv)
	if err == nil {
		t.Fatal("expected second commit to fail")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var record models.InventoryRecord
	if err := db.First(&record, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Quantity != 4 {
		t.Fatalf("expected quantity 4 after single commit, got %d", record.Quantity)
	}

	var count int64
	if err := db.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one movement, got %d", count)
	}
}

func TestCommitGuardCatchesStaleRead(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	record := seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          10,
		AvailableQuantity: 10,
	})

	// Deplete stock out from under a validated request. The pre-commit reread
	// sees the fresh state and refuses the deduction.
	req := quantityLine(productID, 6)
	if err := engine.Validate(ctx, db, req); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := db.Exec(`
		UPDATE inventory_records
		SET quantity = 2, available_quantity = 2
		WHERE id = ?
	`, record.ID).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := engine.Commit(ctx, db, req, MovementContext{Reason: ReasonOrderCreated})
	if err == nil {
		t.Fatal("expected conflict after concurrent drain")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 2, Requested: 6") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateAllAggregatesFailures(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productA := uuid.New()
	productB := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productA,
		Quantity:          10,
		AvailableQuantity: 10,
	})
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productB,
		Quantity:          0,
		AvailableQuantity: 0,
	})

	lineA := quantityLine(productA, 20)
	lineA.ProductName = "Product A"
	lineB := quantityLine(productB, 1)
	lineB.ProductName = "Product B"

	err := engine.ValidateAll(ctx, db, []LineRequest{lineA, lineB})
	if err == nil {
		t.Fatal("expected aggregated validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Product A") || !strings.Contains(msg, "Product B") {
		t.Fatalf("expected both failures reported, got %q", msg)
	}

	// A fully valid set passes.
	ok := quantityLine(productA, 10)
	if err := engine.ValidateAll(ctx, db, []LineRequest{ok}); err != nil {
		t.Fatalf("valid set: %v", err)
	}
}

func TestRestockReturnsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	engine := NewEngine()
	productID := uuid.New()
	seedRecord(t, db, models.InventoryRecord{
		ProductID:         productID,
		Quantity:          5,
		ReservedQuantity:  1,
		AvailableQuantity: 4,
	})

	req := quantityLine(productID, 3)
	result, err := engine.Restock(ctx, db, req, MovementContext{Reason: ReasonOrderCancelled, Reference: "ORD-4001"})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if result.NewQuantity != 8 || result.NewAvailable != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "id = ?", result.MovementID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.MovementType != enums.MovementIn {
		t.Fatalf("expected in movement, got %s", movement.MovementType)
	}
	if movement.Reason != ReasonOrderCancelled {
		t.Fatalf("unexpected reason %q", movement.Reason)
	}
}
