package router

import (
	"context"

	"github.com/shopfronthq/shopfront-backend/internal/analytics/types"
)

type fakeWriter struct {
	orderRows    []types.OrderFactRow
	movementRows []types.StockMovementFactRow
	orderErr     error
	movementErr  error
}

func (f *fakeWriter) InsertOrderFact(_ context.Context, row types.OrderFactRow) error {
	if f.orderErr != nil {
		return f.orderErr
	}
	f.orderRows = append(f.orderRows, row)
	return nil
}

func (f *fakeWriter) InsertMovementFact(_ context.Context, row types.StockMovementFactRow) error {
	if f.movementErr != nil {
		return f.movementErr
	}
	f.movementRows = append(f.movementRows, row)
	return nil
}
