package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/api/responses"
	"github.com/shopfronthq/shopfront-backend/api/validators"
	productsvc "github.com/shopfronthq/shopfront-backend/internal/products"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

type variantRequest struct {
	ID         *string `json:"id,omitempty"`
	Title      string  `json:"title" validate:"required"`
	SKU        *string `json:"sku,omitempty"`
	PriceCents int64   `json:"price_cents" validate:"min=0"`
	CostCents  *int64  `json:"cost_cents,omitempty" validate:"omitempty,min=0"`
	Position   int     `json:"position" validate:"min=0"`
}

type createProductRequest struct {
	Name                string           `json:"name" validate:"required,min=1,max=255"`
	Description         *string          `json:"description,omitempty"`
	SKU                 *string          `json:"sku,omitempty"`
	ProductType         string           `json:"product_type" validate:"required"`
	StockManagementType string           `json:"stock_management_type" validate:"required"`
	PriceCents          int64            `json:"price_cents" validate:"min=0"`
	CostCents           *int64           `json:"cost_cents,omitempty" validate:"omitempty,min=0"`
	PricePerUnitCents   *int64           `json:"price_per_unit_cents,omitempty" validate:"omitempty,min=0"`
	BaseWeightUnit      *string          `json:"base_weight_unit,omitempty"`
	CategoryID          *string          `json:"category_id,omitempty"`
	Tags                []string         `json:"tags,omitempty"`
	Images              []string         `json:"images,omitempty"`
	Variants            []variantRequest `json:"variants,omitempty" validate:"omitempty,dive"`
	InitialQuantity     *int             `json:"initial_quantity,omitempty" validate:"omitempty,min=0"`
	InitialWeightGrams  *decimal.Decimal `json:"initial_weight_grams,omitempty"`
}

type updateProductRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description       *string          `json:"description,omitempty"`
	SKU               *string          `json:"sku,omitempty"`
	PriceCents        *int64           `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	CostCents         *int64           `json:"cost_cents,omitempty" validate:"omitempty,min=0"`
	PricePerUnitCents *int64           `json:"price_per_unit_cents,omitempty" validate:"omitempty,min=0"`
	CategoryID        *string          `json:"category_id,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	Images            []string         `json:"images,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
	Variants          []variantRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

// CreateProduct handles POST /api/v1/products.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// GetProduct handles GET /api/v1/products/{productId}.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts handles GET /api/v1/products.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := productsvc.ListProductsFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category id"))
				return
			}
			filter.CategoryID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
			active := raw == "true"
			filter.IsActive = &active
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       list.Items,
			"next_cursor": list.NextCursor,
		})
	}
}

// UpdateProduct handles PATCH /api/v1/products/{productId}.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct handles DELETE /api/v1/products/{productId}.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func (p createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	productType, err := enums.ParseProductType(strings.TrimSpace(p.ProductType))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
	}
	stockType, err := enums.ParseStockManagementType(strings.TrimSpace(p.StockManagementType))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock management type")
	}

	input := productsvc.CreateProductInput{
		Name:                strings.TrimSpace(p.Name),
		Description:         p.Description,
		SKU:                 p.SKU,
		ProductType:         productType,
		StockManagementType: stockType,
		PriceCents:          p.PriceCents,
		CostCents:           p.CostCents,
		PricePerUnitCents:   p.PricePerUnitCents,
		Tags:                p.Tags,
		Images:              p.Images,
		InitialQuantity:     p.InitialQuantity,
		InitialWeightGrams:  p.InitialWeightGrams,
	}

	if p.BaseWeightUnit != nil {
		unit, parseErr := enums.ParseWeightUnit(strings.TrimSpace(*p.BaseWeightUnit))
		if parseErr != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid weight unit")
		}
		input.BaseWeightUnit = &unit
	}
	if p.CategoryID != nil {
		id, parseErr := uuid.Parse(strings.TrimSpace(*p.CategoryID))
		if parseErr != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category id")
		}
		input.CategoryID = &id
	}

	variants, err := toVariantInputs(p.Variants)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	input.Variants = variants
	return input, nil
}

func (p updateProductRequest) toUpdateInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:              p.Name,
		Description:       p.Description,
		SKU:               p.SKU,
		PriceCents:        p.PriceCents,
		CostCents:         p.CostCents,
		PricePerUnitCents: p.PricePerUnitCents,
		Tags:              p.Tags,
		Images:            p.Images,
		IsActive:          p.IsActive,
	}
	if p.CategoryID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*p.CategoryID))
		if err != nil {
			return productsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &id
	}
	variants, err := toVariantInputs(p.Variants)
	if err != nil {
		return productsvc.UpdateProductInput{}, err
	}
	input.Variants = variants
	return input, nil
}

func toVariantInputs(requests []variantRequest) ([]productsvc.VariantInput, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	variants := make([]productsvc.VariantInput, 0, len(requests))
	for _, req := range requests {
		variant := productsvc.VariantInput{
			Title:      strings.TrimSpace(req.Title),
			SKU:        req.SKU,
			PriceCents: req.PriceCents,
			CostCents:  req.CostCents,
			Position:   req.Position,
		}
		if req.ID != nil {
			id, err := uuid.Parse(strings.TrimSpace(*req.ID))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
			}
			variant.ID = &id
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
