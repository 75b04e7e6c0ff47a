package router

import (
	"context"
	"fmt"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	analyticswriter "github.com/shopfronthq/shopfront-backend/internal/analytics/writer"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	outboxpayloads "github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_created")
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order_created payload", err)
		return err
	}

	itemCount := int64(event.ItemCount)
	status := "pending"
	row := types.OrderFactRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    envelope.OccurredAt,
		OrderID:       event.OrderID.String(),
		OrderNumber:   stringPtr(event.OrderNumber),
		Status:        &status,
		ItemCount:     &itemCount,
		SubtotalCents: int64Ptr(event.SubtotalCents),
		TotalCents:    int64Ptr(event.TotalCents),
		StockManaged:  boolPtr(event.StockManaged),
		Payload:       payloadJSON,
	}

	if err := h.writer.InsertOrderFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order fact row", err)
		return err
	}

	h.logg.Info(logCtx, "order_created handler inserted order fact row")
	return nil
}

type orderStatusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderStatusChangedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderStatusChangedHandler{writer: writer, logg: logg}
}

func (h *orderStatusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_status_changed")
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
		"status":       event.Status,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order_status_changed payload", err)
		return err
	}

	status := string(event.Status)
	row := types.OrderFactRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  envelope.OccurredAt,
		OrderID:     event.OrderID.String(),
		OrderNumber: stringPtr(event.OrderNumber),
		Status:      &status,
		Payload:     payloadJSON,
	}

	if err := h.writer.InsertOrderFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order fact row", err)
		return err
	}

	h.logg.Info(logCtx, "order_status_changed handler inserted order fact row")
	return nil
}

type orderCancelledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCancelledHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCancelledHandler{writer: writer, logg: logg}
}

func (h *orderCancelledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_cancelled")
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
		"restocked":    event.Restocked,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order_cancelled payload", err)
		return err
	}

	status := "cancelled"
	row := types.OrderFactRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  envelope.OccurredAt,
		OrderID:     event.OrderID.String(),
		OrderNumber: stringPtr(event.OrderNumber),
		Status:      &status,
		Restocked:   boolPtr(event.Restocked),
		Payload:     payloadJSON,
	}

	if err := h.writer.InsertOrderFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order fact row", err)
		return err
	}

	h.logg.Info(logCtx, "order_cancelled handler inserted order fact row")
	return nil
}
