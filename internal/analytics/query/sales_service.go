package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	"github.com/shopfronthq/shopfront-backend/pkg/bigquery"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
)

const (
	ordersSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(*) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	revenueSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(total_cents, 0)) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	unitsOutSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(quantity, 0)) AS value
FROM %s
WHERE movement_type = 'out'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topProductsSQL = `
SELECT product_id AS label, SUM(COALESCE(quantity, 0)) AS value
FROM %s
WHERE movement_type = 'out'
  AND occurred_at BETWEEN @start AND @end
GROUP BY product_id
ORDER BY value DESC
LIMIT 5
`

	aovSQL = `
SELECT SAFE_DIVIDE(SUM(COALESCE(total_cents, 0)), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
`

	cancelledCountSQL = `
SELECT COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_cancelled'
  AND occurred_at BETWEEN @start AND @end
`
)

// SalesService provides dashboard data from the BigQuery fact tables.
type SalesService interface {
	Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error)
}

type salesService struct {
	client        *bigquery.Client
	orderTable    string
	movementTable string
}

// NewSalesService builds a service backed by BigQuery.
func NewSalesService(client *bigquery.Client, project, dataset, orderTable, movementTable string) (SalesService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || orderTable == "" || movementTable == "" {
		return nil, fmt.Errorf("project, dataset, and tables are required")
	}
	return &salesService{
		client:        client,
		orderTable:    fmt.Sprintf("`%s.%s.%s`", project, dataset, orderTable),
		movementTable: fmt.Sprintf("`%s.%s.%s`", project, dataset, movementTable),
	}, nil
}

func (s *salesService) Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}

	orders, err := s.querySeries(ctx, fmt.Sprintf(ordersSeriesSQL, s.orderTable), params)
	if err != nil {
		return nil, err
	}
	revenue, err := s.querySeries(ctx, fmt.Sprintf(revenueSeriesSQL, s.orderTable), params)
	if err != nil {
		return nil, err
	}
	unitsOut, err := s.querySeries(ctx, fmt.Sprintf(unitsOutSeriesSQL, s.movementTable), params)
	if err != nil {
		return nil, err
	}
	topProducts, err := s.queryTopLabels(ctx, fmt.Sprintf(topProductsSQL, s.movementTable), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.querySingleFloat(ctx, fmt.Sprintf(aovSQL, s.orderTable), params)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.querySingleInt(ctx, fmt.Sprintf(cancelledCountSQL, s.orderTable), params)
	if err != nil {
		return nil, err
	}

	return &types.SalesQueryResponse{
		OrdersSeries:   orders,
		RevenueSeries:  revenue,
		UnitsOutSeries: unitsOut,
		TopProducts:    topProducts,
		AOV:            aov,
		CancelledCount: cancelled,
	}, nil
}

func validateRequest(req types.SalesQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *salesService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *salesService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *salesService) querySingleFloat(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query scalar: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading scalar row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}

func (s *salesService) querySingleInt(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query scalar: %w", err)
	}
	var row struct {
		Value int64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading scalar row: %w", err)
	}
	return row.Value, nil
}
