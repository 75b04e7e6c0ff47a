package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/pagination"
)

// Repository exposes inventory reads and administrative writes. Order-flow
// mutations go through the Engine instead.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRecord(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryRecord, error)
	FindRecordByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	CreateRecord(ctx context.Context, record *models.InventoryRecord) error
	UpdateRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListRecords(ctx context.Context, filter ListRecordsFilter) ([]models.InventoryRecord, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, filter ListMovementsFilter, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRecord(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryRecord, error) {
	return findRecord(ctx, r.db, productID, variantID)
}

func (r *repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.InventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) UpdateRecord(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListRecords(ctx context.Context, filter ListRecordsFilter) ([]models.InventoryRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryRecord{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LowStock {
		threshold := filter.Threshold
		query = query.Where("quantity <= COALESCE(low_stock_threshold, ?)", threshold)
	}
	var records []models.InventoryRecord
	err := query.Order("updated_at DESC").Find(&records).Error
	return records, err
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filter ListMovementsFilter, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.RecordID != nil {
		query = query.Where("inventory_record_id = ?", *filter.RecordID)
	}
	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", *filter.MovementType)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var movements []models.StockMovement
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
