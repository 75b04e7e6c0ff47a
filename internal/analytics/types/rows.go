package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderFactRow mirrors the order_facts BigQuery schema. One row per order
// lifecycle event.
type OrderFactRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       string             `bigquery:"order_id"`
	OrderNumber   *string            `bigquery:"order_number"`
	Status        *string            `bigquery:"status"`
	ItemCount     *int64             `bigquery:"item_count"`
	SubtotalCents *int64             `bigquery:"subtotal_cents"`
	TotalCents    *int64             `bigquery:"total_cents"`
	StockManaged  *bool              `bigquery:"stock_managed"`
	Restocked     *bool              `bigquery:"restocked"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// StockMovementFactRow mirrors the stock_movement_facts BigQuery schema. One
// row per ledger movement.
type StockMovementFactRow struct {
	EventID             string             `bigquery:"event_id"`
	OccurredAt          time.Time          `bigquery:"occurred_at"`
	MovementID          string             `bigquery:"movement_id"`
	InventoryRecordID   string             `bigquery:"inventory_record_id"`
	ProductID           string             `bigquery:"product_id"`
	VariantID           *string            `bigquery:"variant_id"`
	MovementType        string             `bigquery:"movement_type"`
	Quantity            *int64             `bigquery:"quantity"`
	PreviousQuantity    *int64             `bigquery:"previous_quantity"`
	NewQuantity         *int64             `bigquery:"new_quantity"`
	WeightGrams         *float64           `bigquery:"weight_grams"`
	PreviousWeightGrams *float64           `bigquery:"previous_weight_grams"`
	NewWeightGrams      *float64           `bigquery:"new_weight_grams"`
	Reason              string             `bigquery:"reason"`
	Reference           *string            `bigquery:"reference"`
	Payload             cbigquery.NullJSON `bigquery:"payload"`
}
