package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order with committed stock.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID   `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	Email         string      `json:"email"`
	ItemCount     int         `json:"item_count"`
	SubtotalCents int64       `json:"subtotal_cents"`
	TotalCents    int64       `json:"total_cents"`
	StockManaged  bool        `json:"stock_managed"`
	MovementIDs   []uuid.UUID `json:"movement_ids,omitempty"`
}

// OrderStatusChangedEvent is emitted on any admin status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
}

// OrderCancelledEvent is emitted when an order is cancelled and stock returned.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CancelledAt time.Time `json:"cancelled_at"`
	Restocked   bool      `json:"restocked"`
}

// InventoryMovementRecordedEvent mirrors one row of the stock ledger.
type InventoryMovementRecordedEvent struct {
	MovementID          uuid.UUID          `json:"movement_id"`
	InventoryRecordID   uuid.UUID          `json:"inventory_record_id"`
	ProductID           uuid.UUID          `json:"product_id"`
	VariantID           *uuid.UUID         `json:"variant_id,omitempty"`
	MovementType        enums.MovementType `json:"movement_type"`
	Quantity            *int               `json:"quantity,omitempty"`
	PreviousQuantity    *int               `json:"previous_quantity,omitempty"`
	NewQuantity         *int               `json:"new_quantity,omitempty"`
	WeightGrams         *decimal.Decimal   `json:"weight_grams,omitempty"`
	PreviousWeightGrams *decimal.Decimal   `json:"previous_weight_grams,omitempty"`
	NewWeightGrams      *decimal.Decimal   `json:"new_weight_grams,omitempty"`
	Reason              string             `json:"reason"`
	Reference           *string            `json:"reference,omitempty"`
}

// InventoryLowStockEvent warns that a record dropped to or below its threshold.
type InventoryLowStockEvent struct {
	InventoryRecordID uuid.UUID  `json:"inventory_record_id"`
	ProductID         uuid.UUID  `json:"product_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	Quantity          int        `json:"quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	Threshold         int        `json:"threshold"`
}
