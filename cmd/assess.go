package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neural-roots/freshline/internal/model"
	"github.com/neural-roots/freshline/internal/pipeline"
)

var assessFlags struct {
	crop        string
	temperature float64
	humidity    float64
	ageHours    float64
	quantityKg  float64
	origin      string
	destination string
	distanceKm  float64
	urgency     string
	market      string
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run a one-off shipment assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer s.Close()

		req := model.ShipmentRequest{
			CropName:     assessFlags.crop,
			Temperature:  assessFlags.temperature,
			Humidity:     assessFlags.humidity,
			AgeHours:     assessFlags.ageHours,
			QuantityKg:   assessFlags.quantityKg,
			Origin:       assessFlags.origin,
			Destination:  assessFlags.destination,
			DistanceKm:   assessFlags.distanceKm,
			Urgency:      model.Urgency(strings.ToUpper(assessFlags.urgency)),
			TargetMarket: assessFlags.market,
		}

		orch := pipeline.New(cfg, s)
		record, err := orch.Assess(ctx, req)
		if err != nil {
			return fmt.Errorf("assess: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessFlags.crop, "crop", "", "crop name (required)")
	assessCmd.Flags().Float64Var(&assessFlags.temperature, "temp", 20, "storage temperature in °C")
	assessCmd.Flags().Float64Var(&assessFlags.humidity, "humidity", 85, "storage humidity in %")
	assessCmd.Flags().Float64Var(&assessFlags.ageHours, "age-hours", 0, "hours since harvest")
	assessCmd.Flags().Float64Var(&assessFlags.quantityKg, "quantity", 100, "shipment quantity in kg")
	assessCmd.Flags().StringVar(&assessFlags.origin, "origin", "", "origin location")
	assessCmd.Flags().StringVar(&assessFlags.destination, "destination", "", "destination location")
	assessCmd.Flags().Float64Var(&assessFlags.distanceKm, "distance", 100, "transit distance in km")
	assessCmd.Flags().StringVar(&assessFlags.urgency, "urgency", "MEDIUM", "urgency: LOW, MEDIUM, HIGH or CRITICAL")
	assessCmd.Flags().StringVar(&assessFlags.market, "market", "", "target market")
	_ = assessCmd.MarkFlagRequired("crop")

	rootCmd.AddCommand(assessCmd)
}
