package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	pkgbigquery "github.com/shopfronthq/shopfront-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// Config controls the analytics writer behavior.
type Config struct {
	OrderFactsTable    string
	MovementFactsTable string
	BatchSize          int
	RetryPolicy        RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts analytics rows into BigQuery with retries and
// optional batching.
type BigQueryWriter struct {
	client             tableInserter
	orderFactsTable    string
	movementFactsTable string
	batchSize          int
	retry              RetryPolicy

	orderBuffer    []types.OrderFactRow
	movementBuffer []types.StockMovementFactRow
}

// New creates a new BigQueryWriter backed by a shared client.
func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWithInserter(client, cfg)
}

func newWithInserter(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	orders := strings.TrimSpace(cfg.OrderFactsTable)
	if orders == "" {
		return nil, errors.New("order facts table is required")
	}
	movements := strings.TrimSpace(cfg.MovementFactsTable)
	if movements == "" {
		return nil, errors.New("movement facts table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client:             client,
		orderFactsTable:    orders,
		movementFactsTable: movements,
		batchSize:          batchSize,
		retry:              retry,
	}, nil
}

// InsertOrderFact writes a single order fact row (flushes when batch size reached).
func (w *BigQueryWriter) InsertOrderFact(ctx context.Context, row types.OrderFactRow) error {
	w.orderBuffer = append(w.orderBuffer, row)
	if len(w.orderBuffer) >= w.batchSize {
		return w.flushOrderFacts(ctx)
	}
	return nil
}

// InsertMovementFact writes a single movement fact row (flushes when batch size reached).
func (w *BigQueryWriter) InsertMovementFact(ctx context.Context, row types.StockMovementFactRow) error {
	w.movementBuffer = append(w.movementBuffer, row)
	if len(w.movementBuffer) >= w.batchSize {
		return w.flushMovementFacts(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	if err := w.flushOrderFacts(ctx); err != nil {
		return err
	}
	return w.flushMovementFacts(ctx)
}

func (w *BigQueryWriter) flushOrderFacts(ctx context.Context) error {
	if len(w.orderBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.orderBuffer))
	for i := range w.orderBuffer {
		rows[i] = &w.orderBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.orderFactsTable, rows); err != nil {
		return err
	}
	w.orderBuffer = w.orderBuffer[:0]
	return nil
}

func (w *BigQueryWriter) flushMovementFacts(ctx context.Context) error {
	if len(w.movementBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.movementBuffer))
	for i := range w.movementBuffer {
		rows[i] = &w.movementBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.movementFactsTable, rows); err != nil {
		return err
	}
	w.movementBuffer = w.movementBuffer[:0]
	return nil
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}

	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		backoff = minDuration(backoff*2, w.retry.MaximumBackoff)
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var rowErr *cbigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		if rowErr == nil || len(rowErr.Errors) == 0 {
			return false
		}
		for _, inner := range rowErr.Errors {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}

// EncodeJSON serializes the provided payload so it can be stored in BigQuery JSON columns.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	case []byte:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	}

	marshaled, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	if len(marshaled) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}
