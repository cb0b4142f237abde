package http

import (
	"context"

	"bdexports/internal/store"
	"bdexports/pkg/contracts/domain"
)

// DataStore is the read side of store.Store used by the handlers.
type DataStore interface {
	QueryMonthly(ctx context.Context, filter store.MonthlyFilter) ([]domain.MonthlyRecord, error)
	ListCountries(ctx context.Context) ([]string, error)
	ListHSCodes(ctx context.Context) ([]string, error)
}
