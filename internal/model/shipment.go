package model

import (
	"math"
	"strings"
)

// Urgency expresses how quickly the operator needs the shipment moved.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// ShipmentRequest is the immutable input to an assessment workflow.
type ShipmentRequest struct {
	CropName     string  `json:"crop_name"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	AgeHours     float64 `json:"age_hours"`
	QuantityKg   float64 `json:"quantity_kg"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	DistanceKm   float64 `json:"distance_km"`
	Urgency      Urgency `json:"urgency"`
	TargetMarket string  `json:"target_market"`
}

// Validate checks the request before any stage runs. It returns a
// *ValidationError naming the first offending field.
func (r ShipmentRequest) Validate() error {
	if strings.TrimSpace(r.CropName) == "" {
		return NewValidationError("crop_name", "must not be empty")
	}
	if !isFinite(r.Temperature) {
		return NewValidationError("temperature", "must be a finite number")
	}
	if !isFinite(r.Humidity) {
		return NewValidationError("humidity", "must be a finite number")
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return NewValidationError("humidity", "must be between 0 and 100")
	}
	if !isFinite(r.AgeHours) || r.AgeHours < 0 {
		return NewValidationError("age_hours", "must be a finite non-negative number")
	}
	if !isFinite(r.QuantityKg) || r.QuantityKg <= 0 {
		return NewValidationError("quantity_kg", "must be a finite positive number")
	}
	if !isFinite(r.DistanceKm) || r.DistanceKm < 0 {
		return NewValidationError("distance_km", "must be a finite non-negative number")
	}
	switch r.Urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
	case "":
		return NewValidationError("urgency", "must be one of LOW, MEDIUM, HIGH, CRITICAL")
	default:
		return NewValidationError("urgency", "unknown value "+string(r.Urgency))
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
