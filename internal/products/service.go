package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management plus the read-only resolution the order
// flow depends on.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListProductsFilter) (*ProductList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ResolveLine(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*ResolvedLine, error)
}

type service struct {
	repo          *Repository
	tx            txRunner
	inventoryRepo inventory.Repository
}

// NewService constructs a product service. inventoryRepo is used to seed
// inventory records when a create supplies initial stock.
func NewService(repo *Repository, tx txRunner, inventoryRepo inventory.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo, tx: tx, inventoryRepo: inventoryRepo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		slug, err := s.uniqueSlug(ctx, txRepo, input.Name)
		if err != nil {
			return err
		}

		product := &models.Product{
			ID:                  uuid.New(),
			Name:                strings.TrimSpace(input.Name),
			Slug:                slug,
			Description:         input.Description,
			SKU:                 input.SKU,
			ProductType:         input.ProductType,
			StockManagementType: input.StockManagementType,
			PriceCents:          input.PriceCents,
			CostCents:           input.CostCents,
			PricePerUnitCents:   input.PricePerUnitCents,
			BaseWeightUnit:      input.BaseWeightUnit,
			CategoryID:          input.CategoryID,
			Tags:                input.Tags,
			Images:              input.Images,
			IsActive:            true,
		}
		for i, v := range input.Variants {
			product.Variants = append(product.Variants, models.ProductVariant{
				ID:         uuid.New(),
				Title:      strings.TrimSpace(v.Title),
				SKU:        v.SKU,
				PriceCents: v.PriceCents,
				CostCents:  v.CostCents,
				Position:   positionOrIndex(v.Position, i),
				IsActive:   true,
			})
		}

		if _, err := txRepo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
		}
		createdID = product.ID

		if input.InitialQuantity != nil || input.InitialWeightGrams != nil {
			if err := s.seedInventory(ctx, tx, product, input); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.Get(ctx, createdID)
}

// seedInventory provisions one record for simple products or one per variant
// for variable products, all with the same starting stock.
func (s *service) seedInventory(ctx context.Context, tx *gorm.DB, product *models.Product, input CreateProductInput) error {
	invRepo := s.inventoryRepo.WithTx(tx)
	records := make([]*models.InventoryRecord, 0, len(product.Variants)+1)
	if len(product.Variants) == 0 {
		records = append(records, &models.InventoryRecord{
			ID:        uuid.New(),
			ProductID: product.ID,
		})
	} else {
		for i := range product.Variants {
			variantID := product.Variants[i].ID
			records = append(records, &models.InventoryRecord{
				ID:        uuid.New(),
				ProductID: product.ID,
				VariantID: &variantID,
			})
		}
	}
	for _, record := range records {
		if input.InitialQuantity != nil {
			record.Quantity = *input.InitialQuantity
			record.AvailableQuantity = *input.InitialQuantity
		}
		if input.InitialWeightGrams != nil {
			record.WeightGrams = *input.InitialWeightGrams
			record.AvailableWeightGrams = *input.InitialWeightGrams
		}
		if err := invRepo.CreateRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed inventory record")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListProductsFilter) (*ProductList, error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filter.Limit)
	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	summaries, err := s.repo.StockSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock summaries")
	}

	items := make([]ProductWithStock, len(rows))
	for i, row := range rows {
		items[i] = ProductWithStock{Product: row, Stock: summaries[row.ID]}
	}
	return &ProductList{Items: items, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		applyUpdate(product, input)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		for i, v := range input.Variants {
			variant := models.ProductVariant{
				ProductID:  product.ID,
				Title:      strings.TrimSpace(v.Title),
				SKU:        v.SKU,
				PriceCents: v.PriceCents,
				CostCents:  v.CostCents,
				Position:   positionOrIndex(v.Position, i),
				IsActive:   true,
			}
			if v.ID != nil {
				existing, err := txRepo.FindVariant(ctx, product.ID, *v.ID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
				}
				variant.ID = existing.ID
				variant.CreatedAt = existing.CreatedAt
				variant.IsActive = existing.IsActive
			} else {
				variant.ID = uuid.New()
			}
			if err := txRepo.SaveVariant(ctx, &variant); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save variant")
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.Get(ctx, id)
}

// Delete deactivates the product. Rows stay for order history and the ledger.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) ResolveLine(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*ResolvedLine, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", productID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is no longer available", product.Name)
	}

	line := &ResolvedLine{
		ProductID:           product.ID,
		Name:                product.Name,
		PriceCents:          product.PriceCents,
		StockManagementType: product.StockManagementType,
		BaseWeightUnit:      enums.WeightUnitGram,
	}
	if product.BaseWeightUnit != nil {
		line.BaseWeightUnit = *product.BaseWeightUnit
	}
	if variantID != nil {
		variant, err := s.repo.FindVariant(ctx, productID, *variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "variant %s not found for %s", *variantID, product.Name)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if !variant.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s (%s) is no longer available", product.Name, variant.Title)
		}
		line.VariantID = &variant.ID
		line.VariantTitle = &variant.Title
		line.PriceCents = variant.PriceCents
	}
	return line, nil
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be non-negative")
	}
	if !input.ProductType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product type %q", input.ProductType)
	}
	if !input.StockManagementType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid stock management type %q", input.StockManagementType)
	}
	if input.StockManagementType.IsWeightBased() && input.BaseWeightUnit != nil && !input.BaseWeightUnit.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid weight unit %q", *input.BaseWeightUnit)
	}
	switch input.ProductType {
	case enums.ProductTypeVariable:
		if len(input.Variants) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variable products need at least one variant")
		}
	case enums.ProductTypeSimple:
		if len(input.Variants) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "simple products cannot have variants")
		}
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Title) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant title is required")
		}
		if v.PriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant price_cents must be non-negative")
		}
	}
	if input.InitialQuantity != nil && *input.InitialQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}
	if input.InitialWeightGrams != nil && input.InitialWeightGrams.LessThan(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial weight cannot be negative")
	}
	return nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.SKU != nil {
		product.SKU = input.SKU
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.CostCents != nil {
		product.CostCents = input.CostCents
	}
	if input.PricePerUnitCents != nil {
		product.PricePerUnitCents = input.PricePerUnitCents
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Tags != nil {
		product.Tags = append([]string(nil), input.Tags...)
	}
	if input.Images != nil {
		product.Images = append([]string(nil), input.Images...)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}

func positionOrIndex(position, index int) int {
	if position > 0 {
		return position
	}
	return index
}

// uniqueSlug derives a slug from the name and suffixes it when taken.
func (s *service) uniqueSlug(ctx context.Context, repo *Repository, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "product"
	}
	taken, err := repo.SlugExists(ctx, base)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if !taken {
		return base, nil
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
