package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/neural-roots/freshline/internal/model"
)

// --- DataStore Mock ---

type mockDataStore struct {
	mock.Mock
}

func (m *mockDataStore) FindComparables(ctx context.Context, crop, market string, window time.Duration) ([]model.Comparable, error) {
	args := m.Called(ctx, crop, market, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comparable), args.Error(1)
}

func (m *mockDataStore) FindAvailableCarriers(ctx context.Context, location string, mode model.DeliveryMode) ([]model.Carrier, error) {
	args := m.Called(ctx, location, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Carrier), args.Error(1)
}

func (m *mockDataStore) FindForecast(ctx context.Context, location string, window time.Duration) ([]model.ForecastPoint, error) {
	args := m.Called(ctx, location, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ForecastPoint), args.Error(1)
}

// emptyDataStore returns no rows and no errors for every lookup.
func emptyDataStore() *mockDataStore {
	ds := &mockDataStore{}
	ds.On("FindComparables", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]model.Comparable{}, nil)
	ds.On("FindAvailableCarriers", mock.Anything, mock.Anything, mock.Anything).Return([]model.Carrier{}, nil)
	ds.On("FindForecast", mock.Anything, mock.Anything, mock.Anything).Return([]model.ForecastPoint{}, nil)
	return ds
}

// blockingDataStore parks every lookup until the caller's context expires.
type blockingDataStore struct{}

func (blockingDataStore) FindComparables(ctx context.Context, crop, market string, window time.Duration) ([]model.Comparable, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingDataStore) FindAvailableCarriers(ctx context.Context, location string, mode model.DeliveryMode) ([]model.Carrier, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingDataStore) FindForecast(ctx context.Context, location string, window time.Duration) ([]model.ForecastPoint, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func floatPtr(v float64) *float64 { return &v }
