package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/neural-roots/freshline/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	now  func() time.Time
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS market_listings (
	id        BIGSERIAL PRIMARY KEY,
	crop      TEXT NOT NULL,
	market    TEXT NOT NULL,
	price     DOUBLE PRECISION NOT NULL,
	demand    TEXT NOT NULL DEFAULT 'NORMAL',
	listed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS carriers (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	location        TEXT NOT NULL,
	capacity_kg     DOUBLE PRECISION NOT NULL,
	rating          DOUBLE PRECISION NOT NULL,
	vehicle_type    TEXT NOT NULL,
	capabilities    JSONB NOT NULL,
	available_hours DOUBLE PRECISION NOT NULL,
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS forecast_points (
	id            BIGSERIAL PRIMARY KEY,
	location      TEXT NOT NULL,
	temperature   DOUBLE PRECISION NOT NULL,
	humidity      DOUBLE PRECISION NOT NULL,
	precipitation DOUBLE PRECISION NOT NULL,
	wind_speed    DOUBLE PRECISION NOT NULL,
	observed_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_crop_market ON market_listings(crop, market);
CREATE INDEX IF NOT EXISTS idx_listings_listed_at ON market_listings(listed_at);
CREATE INDEX IF NOT EXISTS idx_carriers_location ON carriers(location);
CREATE INDEX IF NOT EXISTS idx_forecast_location ON forecast_points(location, observed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindComparables(ctx context.Context, crop, market string, window time.Duration) ([]model.Comparable, error) {
	cutoff := s.now().Add(-window)
	rows, err := s.pool.Query(ctx,
		`SELECT crop, market, price, demand, listed_at
		 FROM market_listings
		 WHERE lower(crop) = lower($1) AND lower(market) = lower($2) AND listed_at >= $3
		 ORDER BY listed_at DESC`,
		crop, market, cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query comparables")
	}
	defer rows.Close()

	var out []model.Comparable
	for rows.Next() {
		var c model.Comparable
		var demand string
		if err := rows.Scan(&c.Crop, &c.Market, &c.Price, &demand, &c.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparable")
		}
		c.Demand = model.DemandLabel(demand)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate comparables")
}

func (s *PostgresStore) FindAvailableCarriers(ctx context.Context, location string, mode model.DeliveryMode) ([]model.Carrier, error) {
	query := `SELECT id, name, location, capacity_kg, rating, vehicle_type, capabilities, available_hours, latitude, longitude
	          FROM carriers`
	args := []any{}
	if location != "" {
		query += ` WHERE lower(location) = lower($1)`
		args = append(args, location)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query carriers")
	}
	defer rows.Close()

	var out []model.Carrier
	for rows.Next() {
		var c model.Carrier
		var vehicleType string
		var capsJSON []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.CapacityKg, &c.Rating,
			&vehicleType, &capsJSON, &c.AvailableHours, &c.Latitude, &c.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan carrier")
		}
		c.VehicleType = model.DeliveryMode(vehicleType)
		if err := json.Unmarshal(capsJSON, &c.Capabilities); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode capabilities for %s", c.ID)
		}
		if c.HasCapability(mode) {
			out = append(out, c)
		}
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate carriers")
}

func (s *PostgresStore) FindForecast(ctx context.Context, location string, window time.Duration) ([]model.ForecastPoint, error) {
	from := s.now()
	rows, err := s.pool.Query(ctx,
		`SELECT location, temperature, humidity, precipitation, wind_speed, observed_at
		 FROM forecast_points
		 WHERE lower(location) = lower($1) AND observed_at >= $2 AND observed_at <= $3
		 ORDER BY observed_at`,
		location, from, from.Add(window),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query forecast")
	}
	defer rows.Close()

	var out []model.ForecastPoint
	for rows.Next() {
		var p model.ForecastPoint
		if err := rows.Scan(&p.Location, &p.Temperature, &p.Humidity, &p.Precipitation, &p.WindSpeed, &p.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan forecast point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate forecast")
}

func (s *PostgresStore) SeedComparables(ctx context.Context, listings []model.Comparable) error {
	for _, l := range listings {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO market_listings (crop, market, price, demand, listed_at) VALUES ($1, $2, $3, $4, $5)`,
			l.Crop, l.Market, l.Price, string(l.Demand), l.Timestamp,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed listing %s/%s", l.Crop, l.Market)
		}
	}
	return nil
}

func (s *PostgresStore) SeedCarriers(ctx context.Context, carriers []model.Carrier) error {
	for _, c := range carriers {
		capsJSON, err := json.Marshal(c.Capabilities)
		if err != nil {
			return eris.Wrapf(err, "postgres: encode capabilities for %s", c.ID)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO carriers
			 (id, name, location, capacity_kg, rating, vehicle_type, capabilities, available_hours, latitude, longitude)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name, location = EXCLUDED.location,
			   capacity_kg = EXCLUDED.capacity_kg, rating = EXCLUDED.rating,
			   vehicle_type = EXCLUDED.vehicle_type, capabilities = EXCLUDED.capabilities,
			   available_hours = EXCLUDED.available_hours,
			   latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`,
			c.ID, c.Name, c.Location, c.CapacityKg, c.Rating, string(c.VehicleType),
			capsJSON, c.AvailableHours, c.Latitude, c.Longitude,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed carrier %s", c.ID)
		}
	}
	return nil
}

func (s *PostgresStore) SeedForecast(ctx context.Context, points []model.ForecastPoint) error {
	for _, p := range points {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO forecast_points (location, temperature, humidity, precipitation, wind_speed, observed_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			p.Location, p.Temperature, p.Humidity, p.Precipitation, p.WindSpeed, p.Timestamp,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed forecast point for %s", p.Location)
		}
	}
	return nil
}
