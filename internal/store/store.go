package store

import (
	"context"
	"time"

	"github.com/neural-roots/freshline/internal/model"
)

// DataStore is the read-only collaborator the assessment pipeline queries.
// Empty results and errors are distinct signals; each stage documents its own
// fallback for each case, and neither aborts the workflow.
type DataStore interface {
	// FindComparables returns recent listings for crop near market within the
	// lookback window, or an empty slice.
	FindComparables(ctx context.Context, crop, market string, window time.Duration) ([]model.Comparable, error)

	// FindAvailableCarriers returns carriers registered near location that can
	// run the given mode, or an empty slice.
	FindAvailableCarriers(ctx context.Context, location string, mode model.DeliveryMode) ([]model.Carrier, error)

	// FindForecast returns forecast points for location covering the transit
	// window, or an empty slice.
	FindForecast(ctx context.Context, location string, window time.Duration) ([]model.ForecastPoint, error)
}

// Store extends DataStore with lifecycle and seeding used by the CLI.
type Store interface {
	DataStore

	SeedComparables(ctx context.Context, listings []model.Comparable) error
	SeedCarriers(ctx context.Context, carriers []model.Carrier) error
	SeedForecast(ctx context.Context, points []model.ForecastPoint) error

	Migrate(ctx context.Context) error
	Close() error
}
