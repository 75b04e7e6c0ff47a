package types

import "time"

// SalesQueryRequest bounds a dashboard query to a time window.
type SalesQueryRequest struct {
	Start time.Time
	End   time.Time
}

// TimeSeriesPoint is one day of an aggregated series.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue pairs a label with its aggregated value.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SalesQueryResponse carries the dashboard aggregates for one window.
type SalesQueryResponse struct {
	OrdersSeries   []TimeSeriesPoint `json:"orders_series"`
	RevenueSeries  []TimeSeriesPoint `json:"revenue_series"`
	UnitsOutSeries []TimeSeriesPoint `json:"units_out_series"`
	TopProducts    []LabelValue      `json:"top_products"`
	AOV            float64           `json:"aov"`
	CancelledCount int64             `json:"cancelled_count"`
}
