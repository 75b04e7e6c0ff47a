package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/pagination"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProduct inserts the product row together with its variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads the product with its variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads one variant and checks it belongs to the product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ?", variantID, productID).
		Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// SlugExists reports whether any product already uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ?", slug).
		Count(&count).
		Error
	return count > 0, err
}

// UpdateProduct persists the whole product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Variants").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SaveVariant creates or updates one variant row.
func (r *Repository) SaveVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// Deactivate soft-deletes the product by flipping is_active.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false).
		Error
}

// List returns a cursor page of products, newest first.
func (r *Repository) List(ctx context.Context, filter ListProductsFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Product
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

type stockSummaryRow struct {
	ProductID        uuid.UUID
	TotalQuantity    int
	TotalWeightGrams decimal.Decimal
	RecordCount      int
}

// StockSummaries aggregates inventory per product for the listed IDs.
func (r *Repository) StockSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]StockSummary, error) {
	summaries := make(map[uuid.UUID]StockSummary, len(productIDs))
	if len(productIDs) == 0 {
		return summaries, nil
	}
	var rows []stockSummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Select(
			"product_id",
			"SUM(quantity) AS total_quantity",
			"SUM(weight_grams) AS total_weight_grams",
			"COUNT(*) AS record_count",
		).
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		summaries[row.ProductID] = StockSummary{
			TotalQuantity:    row.TotalQuantity,
			TotalWeightGrams: row.TotalWeightGrams,
			RecordCount:      row.RecordCount,
		}
	}
	return summaries, nil
}
