package router

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	analyticswriter "github.com/shopfronthq/shopfront-backend/internal/analytics/writer"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	outboxpayloads "github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
)

type movementRecordedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newMovementRecordedHandler(writer Writer, logg *logger.Logger) Handler {
	return &movementRecordedHandler{writer: writer, logg: logg}
}

func (h *movementRecordedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.InventoryMovementRecordedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for inventory_movement_recorded")
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":    envelope.EventType,
		"movement_id":   event.MovementID,
		"product_id":    event.ProductID,
		"movement_type": event.MovementType,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode movement payload", err)
		return err
	}

	var variantID *string
	if event.VariantID != nil {
		id := event.VariantID.String()
		variantID = &id
	}

	row := types.StockMovementFactRow{
		EventID:             envelope.EventID,
		OccurredAt:          envelope.OccurredAt,
		MovementID:          event.MovementID.String(),
		InventoryRecordID:   event.InventoryRecordID.String(),
		ProductID:           event.ProductID.String(),
		VariantID:           variantID,
		MovementType:        string(event.MovementType),
		Quantity:            intPtr64(event.Quantity),
		PreviousQuantity:    intPtr64(event.PreviousQuantity),
		NewQuantity:         intPtr64(event.NewQuantity),
		WeightGrams:         decimalPtrFloat(event.WeightGrams),
		PreviousWeightGrams: decimalPtrFloat(event.PreviousWeightGrams),
		NewWeightGrams:      decimalPtrFloat(event.NewWeightGrams),
		Reason:              event.Reason,
		Reference:           event.Reference,
		Payload:             payloadJSON,
	}

	if err := h.writer.InsertMovementFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert movement fact row", err)
		return err
	}

	h.logg.Info(logCtx, "movement handler inserted stock movement fact row")
	return nil
}

func decimalPtrFloat(value *decimal.Decimal) *float64 {
	if value == nil {
		return nil
	}
	out, _ := value.Float64()
	return &out
}
