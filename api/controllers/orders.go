package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/api/middleware"
	"github.com/shopfronthq/shopfront-backend/api/responses"
	"github.com/shopfronthq/shopfront-backend/api/validators"
	ordersvc "github.com/shopfronthq/shopfront-backend/internal/orders"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	"github.com/shopfronthq/shopfront-backend/pkg/types"
)

type orderItemRequest struct {
	ProductID  string           `json:"product_id" validate:"required"`
	VariantID  *string          `json:"variant_id,omitempty"`
	Quantity   int              `json:"quantity" validate:"required,min=1"`
	Weight     *decimal.Decimal `json:"weight,omitempty"`
	WeightUnit *string          `json:"weight_unit,omitempty"`
}

type createOrderRequest struct {
	Email           string             `json:"email" validate:"required,email"`
	Phone           *string            `json:"phone,omitempty"`
	Currency        string             `json:"currency,omitempty"`
	BillingAddress  types.Address      `json:"billing_address"`
	ShippingAddress types.Address      `json:"shipping_address"`
	Notes           *string            `json:"notes,omitempty"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxCents        int64              `json:"tax_cents" validate:"min=0"`
	ShippingCents   int64              `json:"shipping_cents" validate:"min=0"`
	DiscountCents   int64              `json:"discount_cents" validate:"min=0"`
}

type updateOrderStatusRequest struct {
	Status            *string `json:"status,omitempty"`
	PaymentStatus     *string `json:"payment_status,omitempty"`
	FulfillmentStatus *string `json:"fulfillment_status,omitempty"`
}

// CreateOrder handles POST /api/v1/orders.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders handles GET /api/v1/orders.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := ordersvc.ListOrdersFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, parseErr := enums.ParsePaymentStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status"))
				return
			}
			filter.PaymentStatus = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("created_from")); raw != "" {
			from, parseErr := time.Parse(time.RFC3339, raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid created_from"))
				return
			}
			filter.CreatedFrom = &from
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("created_to")); raw != "" {
			to, parseErr := time.Parse(time.RFC3339, raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid created_to"))
				return
			}
			filter.CreatedTo = &to
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

// UpdateOrderStatus handles PATCH /api/v1/orders/{orderId}/status.
func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel. Cancelled orders
// with stock movements are restocked.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled := enums.OrderStatusCancelled
		input := ordersvc.UpdateStatusInput{
			Status:      &cancelled,
			ActorUserID: actorID(r),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}

		order, err := svc.UpdateStatus(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func (p createOrderRequest) toCreateInput(r *http.Request) (ordersvc.CreateOrderInput, error) {
	input := ordersvc.CreateOrderInput{
		Email:           strings.TrimSpace(p.Email),
		Phone:           p.Phone,
		Currency:        p.Currency,
		BillingAddress:  p.BillingAddress,
		ShippingAddress: p.ShippingAddress,
		Notes:           p.Notes,
		TaxCents:        p.TaxCents,
		ShippingCents:   p.ShippingCents,
		DiscountCents:   p.DiscountCents,
		CreatedBy:       actorID(r),
		ActorRole:       middleware.RoleFromContext(r.Context()),
	}

	items := make([]ordersvc.OrderItemInput, 0, len(p.Items))
	for _, item := range p.Items {
		productID, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		line := ordersvc.OrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Weight:    item.Weight,
		}
		if item.VariantID != nil {
			variantID, parseErr := uuid.Parse(strings.TrimSpace(*item.VariantID))
			if parseErr != nil {
				return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid variant id")
			}
			line.VariantID = &variantID
		}
		if item.WeightUnit != nil {
			unit, parseErr := enums.ParseWeightUnit(strings.TrimSpace(*item.WeightUnit))
			if parseErr != nil {
				return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid weight unit")
			}
			line.WeightUnit = &unit
		}
		items = append(items, line)
	}
	input.Items = items
	return input, nil
}

func (p updateOrderStatusRequest) toUpdateInput(r *http.Request) (ordersvc.UpdateStatusInput, error) {
	input := ordersvc.UpdateStatusInput{
		ActorUserID: actorID(r),
		ActorRole:   middleware.RoleFromContext(r.Context()),
	}
	if p.Status != nil {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(*p.Status))
		if err != nil {
			return ordersvc.UpdateStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if p.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(strings.TrimSpace(*p.PaymentStatus))
		if err != nil {
			return ordersvc.UpdateStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = &status
	}
	if p.FulfillmentStatus != nil {
		status, err := enums.ParseFulfillmentStatus(strings.TrimSpace(*p.FulfillmentStatus))
		if err != nil {
			return ordersvc.UpdateStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment status")
		}
		input.FulfillmentStatus = &status
	}
	return input, nil
}

func actorID(r *http.Request) *uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
