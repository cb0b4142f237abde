package store

import (
	"context"
	"time"

	"bdexports/pkg/contracts/domain"
)

// MonthlyFilter narrows a monthly query. Zero values mean "no constraint".
type MonthlyFilter struct {
	HSCode  string
	Country string
	From    time.Time // inclusive, first day of month
	To      time.Time // inclusive, first day of month
	Limit   int
}

// Store is the queryable mirror of the monthly dataset.
type Store interface {
	// ReplaceMonthly swaps the whole table for records in one transaction.
	ReplaceMonthly(ctx context.Context, records []domain.MonthlyRecord) error
	QueryMonthly(ctx context.Context, filter MonthlyFilter) ([]domain.MonthlyRecord, error)
	ListCountries(ctx context.Context) ([]string, error)
	ListHSCodes(ctx context.Context) ([]string, error)
	Close() error
}

// NopStore discards writes and answers every query with nothing.
type NopStore struct{}

func (s *NopStore) ReplaceMonthly(ctx context.Context, records []domain.MonthlyRecord) error {
	return nil
}

func (s *NopStore) QueryMonthly(ctx context.Context, filter MonthlyFilter) ([]domain.MonthlyRecord, error) {
	return nil, nil
}

func (s *NopStore) ListCountries(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *NopStore) ListHSCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
