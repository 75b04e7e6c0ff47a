package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox/payloads"
)

const defaultLowStockThreshold = 5

type LowStockJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Records   lowStockRecordLister
	Outbox    lowStockEmitter
	Threshold int
}

type lowStockRecordLister interface {
	ListRecords(ctx context.Context, filter inventory.ListRecordsFilter) ([]models.InventoryRecord, error)
}

type lowStockEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// NewLowStockJob builds the job that sweeps inventory records sitting at or
// below their low-stock threshold and queues a warning event for each.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return &lowStockJob{
		logg:      params.Logger,
		db:        params.DB,
		records:   params.Records,
		outbox:    params.Outbox,
		threshold: threshold,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	db        txRunner
	records   lowStockRecordLister
	outbox    lowStockEmitter
	threshold int
}

func (j *lowStockJob) Name() string { return "low-stock-scan" }

func (j *lowStockJob) Run(ctx context.Context) error {
	records, err := j.records.ListRecords(ctx, inventory.ListRecordsFilter{
		LowStock:  true,
		Threshold: j.threshold,
	})
	if err != nil {
		return fmt.Errorf("list low stock records: %w", err)
	}
	if len(records) == 0 {
		j.logg.Info(ctx, "no low stock records found")
		return nil
	}

	var errs error
	emitted := 0
	for _, record := range records {
		if err := j.emit(ctx, record); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %s: %w", record.ID, err))
			continue
		}
		emitted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"records_found":  len(records),
		"events_emitted": emitted,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	if errs != nil {
		return fmt.Errorf("low stock scan: %w", errs)
	}
	return nil
}

func (j *lowStockJob) emit(ctx context.Context, record models.InventoryRecord) error {
	threshold := j.threshold
	if record.LowStockThreshold != nil {
		threshold = *record.LowStockThreshold
	}
	available := record.AvailableQuantity
	if available <= 0 {
		available = record.Quantity - record.ReservedQuantity
	}
	event := payloads.InventoryLowStockEvent{
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		Quantity:          record.Quantity,
		AvailableQuantity: available,
		Threshold:         threshold,
	}
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   record.ID,
			Data:          event,
			Version:       1,
			OccurredAt:    time.Now(),
		})
	})
}
