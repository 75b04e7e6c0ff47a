package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	outboxpayloads "github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-test"})
}

func newTestRouter(t *testing.T, writer Writer) *Router {
	t.Helper()
	r, err := NewRouter(writer, testLogger(), nil)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return r
}

func marshalPayload(t *testing.T, payload any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestRouterOrderCreatedInsertsOrderFact(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	r := newTestRouter(t, writer)
	orderID := uuid.New()

	event := outboxpayloads.OrderCreatedEvent{
		OrderID:       orderID,
		OrderNumber:   "ORD-1",
		Email:         "buyer@example.com",
		ItemCount:     2,
		SubtotalCents: 4500,
		TotalCents:    4800,
		StockManaged:  true,
	}
	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID.String(),
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:       marshalPayload(t, event),
	}

	if err := r.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(writer.orderRows) != 1 {
		t.Fatalf("order rows = %d, want 1", len(writer.orderRows))
	}
	row := writer.orderRows[0]
	if row.OrderID != orderID.String() || row.EventType != "order_created" {
		t.Fatalf("row = %+v", row)
	}
	if row.TotalCents == nil || *row.TotalCents != 4800 {
		t.Fatalf("total = %v, want 4800", row.TotalCents)
	}
	if row.StockManaged == nil || !*row.StockManaged {
		t.Fatalf("stock managed flag missing")
	}
	if !row.Payload.Valid {
		t.Fatalf("payload json missing")
	}
}

func TestRouterMovementRecordedInsertsMovementFact(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	r := newTestRouter(t, writer)

	qty := 5
	prev := 10
	next := 5
	reference := "ORD-1"
	event := outboxpayloads.InventoryMovementRecordedEvent{
		MovementID:        uuid.New(),
		InventoryRecordID: uuid.New(),
		ProductID:         uuid.New(),
		MovementType:      enums.MovementOut,
		Quantity:          &qty,
		PreviousQuantity:  &prev,
		NewQuantity:       &next,
		Reason:            "Order Created - Stock Sold",
		Reference:         &reference,
	}
	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventInventoryMovementRecorded,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   event.InventoryRecordID.String(),
		OccurredAt:    time.Now().UTC(),
		Payload:       marshalPayload(t, event),
	}

	if err := r.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(writer.movementRows) != 1 {
		t.Fatalf("movement rows = %d, want 1", len(writer.movementRows))
	}
	row := writer.movementRows[0]
	if row.MovementType != "out" || row.Quantity == nil || *row.Quantity != 5 {
		t.Fatalf("row = %+v", row)
	}
	if row.PreviousQuantity == nil || *row.PreviousQuantity != 10 ||
		row.NewQuantity == nil || *row.NewQuantity != 5 {
		t.Fatalf("transition = %v -> %v", row.PreviousQuantity, row.NewQuantity)
	}
	if row.Reference == nil || *row.Reference != "ORD-1" {
		t.Fatalf("reference = %v", row.Reference)
	}
}

func TestRouterOrderCancelledMarksRestock(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	r := newTestRouter(t, writer)
	orderID := uuid.New()

	event := outboxpayloads.OrderCancelledEvent{
		OrderID:     orderID,
		OrderNumber: "ORD-2",
		CancelledAt: time.Now().UTC(),
		Restocked:   true,
	}
	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID.String(),
		OccurredAt:    time.Now().UTC(),
		Payload:       marshalPayload(t, event),
	}

	if err := r.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle: %v", err)
	}
	row := writer.orderRows[0]
	if row.Status == nil || *row.Status != "cancelled" {
		t.Fatalf("status = %v", row.Status)
	}
	if row.Restocked == nil || !*row.Restocked {
		t.Fatalf("restocked flag missing")
	}
}

func TestRouterUnsupportedEventType(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeWriter{})
	envelope := types.Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.EventInventoryLowStock,
		Payload:   json.RawMessage(`{}`),
	}
	err := r.Handle(context.Background(), envelope)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("err = %v, want unsupported event type", err)
	}
}

func TestRouterPropagatesWriterError(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{orderErr: errors.New("insert failed")}
	r := newTestRouter(t, writer)
	orderID := uuid.New()

	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID.String(),
		OccurredAt:    time.Now().UTC(),
		Payload:       marshalPayload(t, outboxpayloads.OrderCreatedEvent{OrderID: orderID}),
	}
	if err := r.Handle(context.Background(), envelope); err == nil {
		t.Fatalf("expected writer error to propagate")
	}
}
