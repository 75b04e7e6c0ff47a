package analytics

import (
	"context"
	"fmt"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/query"
	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
	"github.com/shopfronthq/shopfront-backend/pkg/bigquery"
)

// Service provides sales reports based on the BigQuery fact tables.
type Service interface {
	// SalesSummary returns dashboard KPIs for the provided window.
	SalesSummary(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error)
}

type service struct {
	sales query.SalesService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client, project, dataset, orderTable, movementTable string) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	sales, err := query.NewSalesService(client, project, dataset, orderTable, movementTable)
	if err != nil {
		return nil, err
	}

	return &service{sales: sales}, nil
}

func (s *service) SalesSummary(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error) {
	return s.sales.Query(ctx, req)
}
