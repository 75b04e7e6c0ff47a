package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/api/responses"
	"github.com/shopfronthq/shopfront-backend/api/validators"
	inventorysvc "github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

type upsertRecordRequest struct {
	ProductID           string           `json:"product_id" validate:"required"`
	VariantID           *string          `json:"variant_id,omitempty"`
	Quantity            *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	ReservedQuantity    *int             `json:"reserved_quantity,omitempty" validate:"omitempty,min=0"`
	WeightGrams         *decimal.Decimal `json:"weight_grams,omitempty"`
	ReservedWeightGrams *decimal.Decimal `json:"reserved_weight_grams,omitempty"`
	LowStockThreshold   *int             `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
}

type adjustmentRequest struct {
	ProductID    string           `json:"product_id" validate:"required"`
	VariantID    *string          `json:"variant_id,omitempty"`
	MovementType string           `json:"movement_type" validate:"required"`
	Quantity     *int             `json:"quantity,omitempty" validate:"omitempty,min=1"`
	WeightGrams  *decimal.Decimal `json:"weight_grams,omitempty"`
	Reason       string           `json:"reason" validate:"required,min=3"`
	Notes        *string          `json:"notes,omitempty"`
}

// UpsertInventoryRecord handles PUT /api/v1/inventory/records.
func UpsertInventoryRecord(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, variantID, err := parseLineIDs(payload.ProductID, payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpsertRecord(r.Context(), inventorysvc.UpsertRecordInput{
			ProductID:           productID,
			VariantID:           variantID,
			Quantity:            payload.Quantity,
			ReservedQuantity:    payload.ReservedQuantity,
			WeightGrams:         payload.WeightGrams,
			ReservedWeightGrams: payload.ReservedWeightGrams,
			LowStockThreshold:   payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CreateAdjustment handles POST /api/v1/inventory/adjustments. Manual
// corrections flow through the same guarded mutation path as orders.
func CreateAdjustment(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, variantID, err := parseLineIDs(payload.ProductID, payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseMovementType(strings.TrimSpace(payload.MovementType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		movement, err := svc.Adjust(r.Context(), inventorysvc.AdjustInput{
			ProductID:    productID,
			VariantID:    variantID,
			MovementType: movementType,
			Quantity:     payload.Quantity,
			WeightGrams:  payload.WeightGrams,
			Reason:       strings.TrimSpace(payload.Reason),
			Notes:        payload.Notes,
			ProcessedBy:  actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// GetInventoryRecord handles GET /api/v1/inventory/records/{recordId}.
func GetInventoryRecord(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetRecord(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ListInventoryRecords handles GET /api/v1/inventory/records.
func ListInventoryRecords(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := inventorysvc.ListRecordsFilter{
			LowStock: r.URL.Query().Get("low_stock") == "true",
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			filter.ProductID = &id
		}
		if filter.LowStock {
			threshold, err := validators.ParseQueryInt(r, "threshold", 0, 1, 100000)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Threshold = threshold
		}

		records, err := svc.ListRecords(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": records})
	}
}

// ListStockMovements handles GET /api/v1/inventory/movements.
func ListStockMovements(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := inventorysvc.ListMovementsFilter{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product id"))
				return
			}
			filter.ProductID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("record_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid record id"))
				return
			}
			filter.RecordID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("movement_type")); raw != "" {
			movementType, parseErr := enums.ParseMovementType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid movement type"))
				return
			}
			filter.MovementType = &movementType
		}

		movements, nextCursor, err := svc.ListMovements(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       movements,
			"next_cursor": nextCursor,
		})
	}
}

func parseLineIDs(rawProduct string, rawVariant *string) (uuid.UUID, *uuid.UUID, error) {
	productID, err := uuid.Parse(strings.TrimSpace(rawProduct))
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	if rawVariant == nil {
		return productID, nil, nil
	}
	variantID, err := uuid.Parse(strings.TrimSpace(*rawVariant))
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
	}
	return productID, &variantID, nil
}
