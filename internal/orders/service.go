package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/internal/products"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
	"github.com/shopfronthq/shopfront-backend/pkg/pagination"
	"github.com/shopfronthq/shopfront-backend/pkg/weight"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productResolver interface {
	ResolveLine(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*products.ResolvedLine, error)
}

type settingsReader interface {
	StockManagementEnabled(ctx context.Context) (bool, error)
}

type stockEngine interface {
	ValidateAll(ctx context.Context, tx *gorm.DB, reqs []inventory.LineRequest) error
	Commit(ctx context.Context, tx *gorm.DB, req inventory.LineRequest, mv inventory.MovementContext) (inventory.CommitResult, error)
	Restock(ctx context.Context, tx *gorm.DB, req inventory.LineRequest, mv inventory.MovementContext) (inventory.CommitResult, error)
}

// Service defines the admin order operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListOrdersFilter) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	engine   stockEngine
	products productResolver
	settings settingsReader
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, engine stockEngine, resolver productResolver, settings settingsReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if engine == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   ob,
		engine:   engine,
		products: resolver,
		settings: settings,
	}, nil
}

// resolvedItem pairs the order item snapshot with its stock request.
type resolvedItem struct {
	item models.OrderItem
	req  inventory.LineRequest
}

// Create validates every line before any stock is touched, then inserts the
// order and deducts stock in one transaction. When stock management is
// disabled the order is accepted without touching inventory at all.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	resolved, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	stockManaged, err := s.settings.StockManagementEnabled(ctx)
	if err != nil {
		return nil, err
	}

	order := buildOrder(input, resolved)

	var actor *outbox.ActorRef
	if input.CreatedBy != nil {
		actor = &outbox.ActorRef{UserID: *input.CreatedBy, Role: input.ActorRole}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if stockManaged {
			reqs := make([]inventory.LineRequest, len(resolved))
			for i, r := range resolved {
				reqs[i] = r.req
			}
			if err := s.engine.ValidateAll(ctx, tx, reqs); err != nil {
				return err
			}
		}

		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		var movementIDs []uuid.UUID
		if stockManaged {
			mv := inventory.MovementContext{
				Reason:      inventory.ReasonOrderCreated,
				Reference:   order.OrderNumber,
				ProcessedBy: input.CreatedBy,
			}
			for _, r := range resolved {
				result, err := s.engine.Commit(ctx, tx, r.req, mv)
				if err != nil {
					return err
				}
				movementIDs = append(movementIDs, result.MovementID)
				if err := s.emitMovementRecorded(ctx, tx, result.MovementID, actor); err != nil {
					return err
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				Email:         order.Email,
				ItemCount:     len(order.Items),
				SubtotalCents: order.SubtotalCents,
				TotalCents:    order.TotalCents,
				StockManaged:  stockManaged,
				MovementIDs:   movementIDs,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	return s.Get(ctx, order.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListOrdersFilter) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filter.Limit)
	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &OrderList{Items: rows, NextCursor: next}, nil
}

// UpdateStatus applies admin transitions. Cancelling returns every outbound
// movement of the order to stock through compensating inbound movements.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*models.Order, error) {
	if input.Status == nil && input.PaymentStatus == nil && input.FulfillmentStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no status change supplied")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *input.Status)
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", *input.PaymentStatus)
	}
	if input.FulfillmentStatus != nil && !input.FulfillmentStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid fulfillment status %q", *input.FulfillmentStatus)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Status != nil && order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already cancelled")
	}

	var actor *outbox.ActorRef
	if input.ActorUserID != nil {
		actor = &outbox.ActorRef{UserID: *input.ActorUserID, Role: input.ActorRole}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		updates := map[string]any{}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.PaymentStatus != nil {
			updates["payment_status"] = *input.PaymentStatus
		}
		if input.FulfillmentStatus != nil {
			updates["fulfillment_status"] = *input.FulfillmentStatus
		}
		if err := txRepo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if input.Status != nil && *input.Status == enums.OrderStatusCancelled {
			restocked, err := s.restock(ctx, tx, txRepo, order, input.ActorUserID)
			if err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: payloads.OrderCancelledEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					CancelledAt: time.Now(),
					Restocked:   restocked,
				},
				Version:    1,
				OccurredAt: time.Now(),
			})
		}

		if input.Status != nil && *input.Status != order.Status {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: payloads.OrderStatusChangedEvent{
					OrderID:        order.ID,
					OrderNumber:    order.OrderNumber,
					PreviousStatus: order.Status,
					Status:         *input.Status,
				},
				Version:    1,
				OccurredAt: time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	return s.Get(ctx, order.ID)
}

// restock replays the order's outbound movements as inbound ones. Orders
// created while stock management was disabled have no movements and restock
// nothing.
func (s *service) restock(ctx context.Context, tx *gorm.DB, txRepo Repository, order *models.Order, actorID *uuid.UUID) (bool, error) {
	movements, err := txRepo.FindOutboundMovements(ctx, order.OrderNumber)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order movements")
	}
	if len(movements) == 0 {
		return false, nil
	}

	names := itemNamesByLine(order.Items)
	mv := inventory.MovementContext{
		Reason:      inventory.ReasonOrderCancelled,
		Reference:   order.OrderNumber,
		ProcessedBy: actorID,
	}
	for _, movement := range movements {
		req := inventory.LineRequest{
			ProductID: movement.ProductID,
			VariantID: movement.VariantID,
		}
		if name, ok := names[lineKey(movement.ProductID, movement.VariantID)]; ok {
			req.ProductName = name.name
			req.VariantTitle = name.variantTitle
		}
		if movement.WeightGrams != nil {
			req.WeightBased = true
			req.WeightGrams = *movement.WeightGrams
		} else if movement.Quantity != nil {
			req.Quantity = *movement.Quantity
		}
		result, err := s.engine.Restock(ctx, tx, req, mv)
		if err != nil {
			return false, err
		}
		var eventActor *outbox.ActorRef
		if actorID != nil {
			eventActor = &outbox.ActorRef{UserID: *actorID}
		}
		if err := s.emitMovementRecorded(ctx, tx, result.MovementID, eventActor); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *service) emitMovementRecorded(ctx context.Context, tx *gorm.DB, movementID uuid.UUID, actor *outbox.ActorRef) error {
	var movement models.StockMovement
	if err := tx.WithContext(ctx).First(&movement, "id = ?", movementID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recorded movement")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryMovementRecorded,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   movement.InventoryRecordID,
		Actor:         actor,
		Data: payloads.InventoryMovementRecordedEvent{
			MovementID:          movement.ID,
			InventoryRecordID:   movement.InventoryRecordID,
			ProductID:           movement.ProductID,
			VariantID:           movement.VariantID,
			MovementType:        movement.MovementType,
			Quantity:            movement.Quantity,
			PreviousQuantity:    movement.PreviousQuantity,
			NewQuantity:         movement.NewQuantity,
			WeightGrams:         movement.WeightGrams,
			PreviousWeightGrams: movement.PreviousWeightGrams,
			NewWeightGrams:      movement.NewWeightGrams,
			Reason:              movement.Reason,
			Reference:           movement.Reference,
		},
		Version:    1,
		OccurredAt: time.Now(),
	})
}

// resolveItems turns raw item inputs into order item snapshots plus the
// stock requests the engine will check.
func (s *service) resolveItems(ctx context.Context, items []OrderItemInput) ([]resolvedItem, error) {
	resolved := make([]resolvedItem, 0, len(items))
	for _, item := range items {
		line, err := s.products.ResolveLine(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, err
		}

		req := inventory.LineRequest{
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			ProductName:  line.Name,
			VariantTitle: line.VariantTitle,
			Quantity:     item.Quantity,
		}
		orderItem := models.OrderItem{
			ID:           uuid.New(),
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			ProductName:  line.Name,
			VariantTitle: line.VariantTitle,
			Quantity:     item.Quantity,
			PriceCents:   line.PriceCents,
			TotalCents:   line.PriceCents * int64(item.Quantity),
		}

		if line.WeightBased() {
			if item.Weight == nil || item.Weight.LessThanOrEqual(decimal.Zero) {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "weight is required for %s", line.Name)
			}
			unit := line.BaseWeightUnit
			if item.WeightUnit != nil {
				unit = *item.WeightUnit
			}
			grams, err := weight.ToGrams(*item.Weight, unit)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert weight")
			}
			req.WeightBased = true
			req.WeightGrams = grams
			orderItem.WeightGrams = &grams
			orderItem.WeightUnit = &unit
		}

		resolved = append(resolved, resolvedItem{item: orderItem, req: req})
	}
	return resolved, nil
}

func buildOrder(input CreateOrderInput, resolved []resolvedItem) *models.Order {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	items := make([]models.OrderItem, len(resolved))
	var subtotal int64
	for i, r := range resolved {
		items[i] = r.item
		subtotal += r.item.TotalCents
	}

	total := subtotal + input.TaxCents + input.ShippingCents - input.DiscountCents
	if total < 0 {
		total = 0
	}

	return &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:           input.Phone,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		Currency:        currency,
		SubtotalCents:   subtotal,
		TaxCents:        input.TaxCents,
		ShippingCents:   input.ShippingCents,
		DiscountCents:   input.DiscountCents,
		TotalCents:      total,
		BillingAddress:  input.BillingAddress.Normalized(),
		ShippingAddress: input.ShippingAddress.Normalized(),
		Notes:           input.Notes,
		CreatedBy:       input.CreatedBy,
		Items:           items,
	}
}

func validateCreate(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if input.TaxCents < 0 || input.ShippingCents < 0 || input.DiscountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "monetary adjustments cannot be negative")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.WeightUnit != nil && !item.WeightUnit.IsValid() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid weight unit %q", *item.WeightUnit)
		}
	}
	return nil
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%05d", time.Now().UnixMilli(), rand.Intn(100000))
}

type lineName struct {
	name         string
	variantTitle *string
}

func lineKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + ":" + variantID.String()
}

func itemNamesByLine(items []models.OrderItem) map[string]lineName {
	names := make(map[string]lineName, len(items))
	for _, item := range items {
		names[lineKey(item.ProductID, item.VariantID)] = lineName{
			name:         item.ProductName,
			variantTitle: item.VariantTitle,
		}
	}
	return names
}
