package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/neural-roots/freshline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS market_listings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	crop      TEXT NOT NULL,
	market    TEXT NOT NULL,
	price     REAL NOT NULL,
	demand    TEXT NOT NULL DEFAULT 'NORMAL',
	listed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS carriers (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	location        TEXT NOT NULL,
	capacity_kg     REAL NOT NULL,
	rating          REAL NOT NULL,
	vehicle_type    TEXT NOT NULL,
	capabilities    TEXT NOT NULL,
	available_hours REAL NOT NULL,
	latitude        REAL,
	longitude       REAL
);

CREATE TABLE IF NOT EXISTS forecast_points (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	location      TEXT NOT NULL,
	temperature   REAL NOT NULL,
	humidity      REAL NOT NULL,
	precipitation REAL NOT NULL,
	wind_speed    REAL NOT NULL,
	observed_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_crop_market ON market_listings(crop, market);
CREATE INDEX IF NOT EXISTS idx_listings_listed_at ON market_listings(listed_at);
CREATE INDEX IF NOT EXISTS idx_carriers_location ON carriers(location);
CREATE INDEX IF NOT EXISTS idx_forecast_location ON forecast_points(location, observed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindComparables(ctx context.Context, crop, market string, window time.Duration) ([]model.Comparable, error) {
	cutoff := s.now().Add(-window)
	rows, err := s.db.QueryContext(ctx,
		`SELECT crop, market, price, demand, listed_at
		 FROM market_listings
		 WHERE lower(crop) = lower(?) AND lower(market) = lower(?) AND listed_at >= ?
		 ORDER BY listed_at DESC`,
		crop, market, cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query comparables")
	}
	defer rows.Close()

	var out []model.Comparable
	for rows.Next() {
		var c model.Comparable
		var demand string
		if err := rows.Scan(&c.Crop, &c.Market, &c.Price, &demand, &c.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparable")
		}
		c.Demand = model.DemandLabel(demand)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate comparables")
}

func (s *SQLiteStore) FindAvailableCarriers(ctx context.Context, location string, mode model.DeliveryMode) ([]model.Carrier, error) {
	query := `SELECT id, name, location, capacity_kg, rating, vehicle_type, capabilities, available_hours, latitude, longitude
	          FROM carriers`
	args := []any{}
	if location != "" {
		query += ` WHERE lower(location) = lower(?)`
		args = append(args, location)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query carriers")
	}
	defer rows.Close()

	var out []model.Carrier
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, err
		}
		if c.HasCapability(mode) {
			out = append(out, c)
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate carriers")
}

func scanCarrier(rows *sql.Rows) (model.Carrier, error) {
	var c model.Carrier
	var vehicleType, capsJSON string
	var lat, lon sql.NullFloat64
	if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.CapacityKg, &c.Rating,
		&vehicleType, &capsJSON, &c.AvailableHours, &lat, &lon); err != nil {
		return c, eris.Wrap(err, "sqlite: scan carrier")
	}
	c.VehicleType = model.DeliveryMode(vehicleType)
	if err := json.Unmarshal([]byte(capsJSON), &c.Capabilities); err != nil {
		return c, eris.Wrapf(err, "sqlite: decode capabilities for %s", c.ID)
	}
	if lat.Valid {
		c.Latitude = &lat.Float64
	}
	if lon.Valid {
		c.Longitude = &lon.Float64
	}
	return c, nil
}

func (s *SQLiteStore) FindForecast(ctx context.Context, location string, window time.Duration) ([]model.ForecastPoint, error) {
	from := s.now()
	to := from.Add(window)
	rows, err := s.db.QueryContext(ctx,
		`SELECT location, temperature, humidity, precipitation, wind_speed, observed_at
		 FROM forecast_points
		 WHERE lower(location) = lower(?) AND observed_at >= ? AND observed_at <= ?
		 ORDER BY observed_at`,
		location, from, to,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query forecast")
	}
	defer rows.Close()

	var out []model.ForecastPoint
	for rows.Next() {
		var p model.ForecastPoint
		if err := rows.Scan(&p.Location, &p.Temperature, &p.Humidity, &p.Precipitation, &p.WindSpeed, &p.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan forecast point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate forecast")
}

func (s *SQLiteStore) SeedComparables(ctx context.Context, listings []model.Comparable) error {
	for _, l := range listings {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO market_listings (crop, market, price, demand, listed_at) VALUES (?, ?, ?, ?, ?)`,
			l.Crop, l.Market, l.Price, string(l.Demand), l.Timestamp,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed listing %s/%s", l.Crop, l.Market)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedCarriers(ctx context.Context, carriers []model.Carrier) error {
	for _, c := range carriers {
		capsJSON, err := json.Marshal(c.Capabilities)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode capabilities for %s", c.ID)
		}
		var lat, lon any
		if c.Latitude != nil {
			lat = *c.Latitude
		}
		if c.Longitude != nil {
			lon = *c.Longitude
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO carriers
			 (id, name, location, capacity_kg, rating, vehicle_type, capabilities, available_hours, latitude, longitude)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Location, c.CapacityKg, c.Rating, string(c.VehicleType),
			string(capsJSON), c.AvailableHours, lat, lon,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed carrier %s", c.ID)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedForecast(ctx context.Context, points []model.ForecastPoint) error {
	for _, p := range points {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO forecast_points (location, temperature, humidity, precipitation, wind_speed, observed_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.Location, p.Temperature, p.Humidity, p.Precipitation, p.WindSpeed, p.Timestamp,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed forecast point for %s", p.Location)
		}
	}
	return nil
}
