package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

func TestCreateRecordAssignsID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record := &models.InventoryRecord{ProductID: uuid.New()}
	if err := repo.CreateRecord(ctx, record); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if record.ID == uuid.Nil {
		t.Fatal("expected record ID to be assigned")
	}

	loaded, err := repo.FindRecordByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if loaded.ProductID != record.ProductID {
		t.Fatalf("loaded product = %s, want %s", loaded.ProductID, record.ProductID)
	}

	other := &models.InventoryRecord{ProductID: uuid.New()}
	if err := repo.CreateRecord(ctx, other); err != nil {
		t.Fatalf("create second record: %v", err)
	}
	if other.ID == record.ID {
		t.Fatalf("expected distinct IDs, both %s", other.ID)
	}
}

func TestCreateMovementAssignsID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record := &models.InventoryRecord{ProductID: uuid.New()}
	if err := repo.CreateRecord(ctx, record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	qty := 3
	movement := &models.StockMovement{
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		MovementType:      enums.MovementIn,
		Quantity:          &qty,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		t.Fatalf("create movement: %v", err)
	}
	if movement.ID == uuid.Nil {
		t.Fatal("expected movement ID to be assigned")
	}
}
