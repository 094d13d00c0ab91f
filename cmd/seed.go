package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/neural-roots/freshline/internal/model"
)

// seedFixture is the on-disk YAML shape for seed data. Timestamps are given
// relative to now so fixture files stay evergreen.
type seedFixture struct {
	Listings []struct {
		Crop     string  `yaml:"crop"`
		Market   string  `yaml:"market"`
		Price    float64 `yaml:"price"`
		Demand   string  `yaml:"demand"`
		HoursAgo float64 `yaml:"hours_ago"`
	} `yaml:"listings"`
	Carriers []struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		Location       string   `yaml:"location"`
		CapacityKg     float64  `yaml:"capacity_kg"`
		Rating         float64  `yaml:"rating"`
		VehicleType    string   `yaml:"vehicle_type"`
		Capabilities   []string `yaml:"capabilities"`
		AvailableHours float64  `yaml:"available_hours"`
		Latitude       *float64 `yaml:"latitude"`
		Longitude      *float64 `yaml:"longitude"`
	} `yaml:"carriers"`
	Forecast []struct {
		Location      string  `yaml:"location"`
		Temperature   float64 `yaml:"temperature"`
		Humidity      float64 `yaml:"humidity"`
		Precipitation float64 `yaml:"precipitation"`
		WindSpeed     float64 `yaml:"wind_speed"`
		HoursAhead    float64 `yaml:"hours_ahead"`
	} `yaml:"forecast"`
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
		var fixture seedFixture
		if err := yaml.Unmarshal(raw, &fixture); err != nil {
			return fmt.Errorf("parse fixture: %w", err)
		}

		s, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer s.Close()

		now := time.Now().UTC()

		listings := make([]model.Comparable, 0, len(fixture.Listings))
		for _, l := range fixture.Listings {
			demand := model.DemandLabel(l.Demand)
			if demand == "" {
				demand = model.DemandNormal
			}
			listings = append(listings, model.Comparable{
				Crop:      l.Crop,
				Market:    l.Market,
				Price:     l.Price,
				Demand:    demand,
				Timestamp: now.Add(-time.Duration(l.HoursAgo * float64(time.Hour))),
			})
		}
		if err := s.SeedComparables(ctx, listings); err != nil {
			return fmt.Errorf("seed listings: %w", err)
		}

		carriers := make([]model.Carrier, 0, len(fixture.Carriers))
		for _, c := range fixture.Carriers {
			id := c.ID
			if id == "" {
				id = uuid.NewString()
			}
			capabilities := make([]model.DeliveryMode, 0, len(c.Capabilities))
			for _, capability := range c.Capabilities {
				capabilities = append(capabilities, model.DeliveryMode(capability))
			}
			carriers = append(carriers, model.Carrier{
				ID:             id,
				Name:           c.Name,
				Location:       c.Location,
				CapacityKg:     c.CapacityKg,
				Rating:         c.Rating,
				VehicleType:    model.DeliveryMode(c.VehicleType),
				Capabilities:   capabilities,
				AvailableHours: c.AvailableHours,
				Latitude:       c.Latitude,
				Longitude:      c.Longitude,
			})
		}
		if err := s.SeedCarriers(ctx, carriers); err != nil {
			return fmt.Errorf("seed carriers: %w", err)
		}

		points := make([]model.ForecastPoint, 0, len(fixture.Forecast))
		for _, p := range fixture.Forecast {
			points = append(points, model.ForecastPoint{
				Location:      p.Location,
				Temperature:   p.Temperature,
				Humidity:      p.Humidity,
				Precipitation: p.Precipitation,
				WindSpeed:     p.WindSpeed,
				Timestamp:     now.Add(time.Duration(p.HoursAhead * float64(time.Hour))),
			})
		}
		if err := s.SeedForecast(ctx, points); err != nil {
			return fmt.Errorf("seed forecast: %w", err)
		}

		zap.L().Info("seed: fixtures loaded",
			zap.Int("listings", len(listings)),
			zap.Int("carriers", len(carriers)),
			zap.Int("forecast_points", len(points)))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "fixtures/seed.yaml", "fixture file to load")
	rootCmd.AddCommand(seedCmd)
}
