package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/types"
)

// OrderItemInput is one requested line. Weight is expressed in WeightUnit and
// converted to grams before any stock math; a nil unit falls back to the
// product's base unit.
type OrderItemInput struct {
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
	Quantity   int
	Weight     *decimal.Decimal
	WeightUnit *enums.WeightUnit
}

// CreateOrderInput carries a validated order request.
type CreateOrderInput struct {
	Email           string
	Phone           *string
	Currency        string
	BillingAddress  types.Address
	ShippingAddress types.Address
	Notes           *string
	Items           []OrderItemInput
	TaxCents        int64
	ShippingCents   int64
	DiscountCents   int64
	CreatedBy       *uuid.UUID
	ActorRole       string
}

// UpdateStatusInput applies admin status transitions; nil fields are untouched.
type UpdateStatusInput struct {
	Status            *enums.OrderStatus
	PaymentStatus     *enums.PaymentStatus
	FulfillmentStatus *enums.FulfillmentStatus
	ActorUserID       *uuid.UUID
	ActorRole         string
}

// ListOrdersFilter narrows order listings.
type ListOrdersFilter struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Cursor        string
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Items      []models.Order
	NextCursor string
}
