package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/neural-roots/freshline/internal/model"
	"github.com/neural-roots/freshline/internal/store"
)

// Per-mode transport parameters.
var (
	ratePerKm = map[model.DeliveryMode]float64{
		model.ModeStandard:     0.50,
		model.ModeRefrigerated: 0.65,
		model.ModeColdChain:    0.80,
	}
	costMultiplier = map[model.DeliveryMode]float64{
		model.ModeStandard:     1.0,
		model.ModeRefrigerated: 1.3,
		model.ModeColdChain:    1.5,
	}
	avgSpeedKmh = map[model.DeliveryMode]float64{
		model.ModeStandard:     80,
		model.ModeRefrigerated: 70,
		model.ModeColdChain:    60,
	}
)

// knownLocations maps region names to coordinates for carrier proximity
// scoring. Shipments from unlisted locations skip the proximity component.
var knownLocations = map[string][2]float64{
	"pune":       {18.5204, 73.8567},
	"nashik":     {19.9975, 73.7898},
	"mumbai":     {19.0760, 72.8777},
	"kolhapur":   {16.7050, 74.2433},
	"ratnagiri":  {16.9902, 73.3120},
	"jalgaon":    {21.0077, 75.5626},
	"satara":     {17.6805, 74.0183},
	"solapur":    {17.6599, 75.9064},
	"sangli":     {16.8524, 74.5815},
	"aurangabad": {19.8762, 75.3433},
	"ahmednagar": {19.0948, 74.7480},
}

// LogisticsSelector picks a delivery mode and ranks eligible carriers.
type LogisticsSelector struct {
	store      store.DataStore
	longHaulKm float64
}

// NewLogisticsSelector builds a selector over the given data store.
func NewLogisticsSelector(ds store.DataStore, longHaulKm float64) *LogisticsSelector {
	return &LogisticsSelector{store: ds, longHaulKm: longHaulKm}
}

// modeForLevel maps freshness level to the minimum required transport tier.
func modeForLevel(level model.FreshnessLevel) model.DeliveryMode {
	switch level {
	case model.LevelCritical, model.LevelPoor:
		return model.ModeColdChain
	case model.LevelFair, model.LevelGood:
		return model.ModeRefrigerated
	default:
		return model.ModeStandard
	}
}

// escalate bumps the mode one tier up for long hauls.
func escalate(mode model.DeliveryMode) model.DeliveryMode {
	switch mode {
	case model.ModeStandard:
		return model.ModeRefrigerated
	case model.ModeRefrigerated:
		return model.ModeColdChain
	default:
		return model.ModeColdChain
	}
}

// Select picks the mode, estimates cost and time, and ranks carriers.
// An empty carrier list makes the shipment infeasible but is not an error;
// the stage degrades only when the data store itself fails.
func (s *LogisticsSelector) Select(ctx context.Context, req model.ShipmentRequest, freshness model.FreshnessResult) model.LogisticsResult {
	log := zap.L().With(zap.String("crop", req.CropName), zap.Float64("distance_km", req.DistanceKm))

	mode := modeForLevel(freshness.Level)
	if req.DistanceKm > s.longHaulKm {
		mode = escalate(mode)
	}

	result := model.LogisticsResult{
		Mode:           mode,
		Status:         model.StageOK,
		EstimatedCost:  round2(ratePerKm[mode] * req.DistanceKm * costMultiplier[mode]),
		EstimatedHours: round2(req.DistanceKm / avgSpeedKmh[mode]),
	}

	carriers, err := s.store.FindAvailableCarriers(ctx, req.Origin, mode)
	if err != nil {
		result.Status = model.StageDegraded
		result.StatusReason = "data store unavailable: " + err.Error()
		result.Feasible = false
		log.Warn("logistics: carrier lookup failed", zap.Error(err))
		return result
	}

	ranked := rankCarriers(carriers, req, mode)
	result.Carriers = ranked
	result.Feasible = len(ranked) > 0
	if !result.Feasible {
		result.Notes = append(result.Notes,
			fmt.Sprintf("No eligible carrier for %.0fkg via %s; arrange transport manually", req.QuantityKg, mode))
		log.Info("logistics: no eligible carriers", zap.String("mode", string(mode)))
	} else {
		result.Notes = append(result.Notes,
			fmt.Sprintf("Use %s delivery, estimated %.1fh in transit", mode, result.EstimatedHours))
	}

	return result
}

// rankCarriers filters eligible carriers and orders them by suitability.
// Ties break by rating descending, then carrier id ascending, so the ranking
// is stable regardless of store return order.
func rankCarriers(carriers []model.Carrier, req model.ShipmentRequest, mode model.DeliveryMode) []model.RankedCarrier {
	origin, originKnown := locationCoords(req.Origin)

	var ranked []model.RankedCarrier
	for _, c := range carriers {
		if c.CapacityKg < req.QuantityKg || !c.HasCapability(mode) {
			continue
		}
		ranked = append(ranked, model.RankedCarrier{
			ID:          c.ID,
			Name:        c.Name,
			VehicleType: string(c.VehicleType),
			Rating:      c.Rating,
			Suitability: suitability(c, req, mode, origin, originKnown),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Suitability != ranked[j].Suitability {
			return ranked[i].Suitability > ranked[j].Suitability
		}
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// suitability scores a carrier 0-100: capacity 30, rating 20, vehicle 20,
// availability 10, proximity 10. When proximity data is missing the remaining
// weights are renormalized to keep the scale at 100.
func suitability(c model.Carrier, req model.ShipmentRequest, mode model.DeliveryMode, origin [2]float64, originKnown bool) float64 {
	capacityScore := math.Min(30, (c.CapacityKg/req.QuantityKg)*10)
	ratingScore := clamp(c.Rating, 0, 5) / 5 * 20
	vehicleScore := vehicleSuitability(c.VehicleType, mode)
	availabilityScore := math.Min(c.AvailableHours, 24) / 24 * 10

	score := capacityScore + ratingScore + vehicleScore + availabilityScore

	hasProximity := originKnown && c.Latitude != nil && c.Longitude != nil
	if hasProximity {
		d := haversineKm(origin[0], origin[1], *c.Latitude, *c.Longitude)
		score += math.Max(0, 1-d/250) * 10
	} else {
		score *= 100.0 / 90.0
	}

	return round2(clamp(score, 0, 100))
}

// vehicleSuitability rewards an exact tier match over an over-provisioned one.
func vehicleSuitability(vehicle, required model.DeliveryMode) float64 {
	switch {
	case vehicle == required:
		return 20
	case required == model.ModeRefrigerated && vehicle == model.ModeColdChain:
		return 15
	case required == model.ModeStandard && vehicle != model.ModeStandard:
		return 15
	default:
		return 0
	}
}

func locationCoords(location string) ([2]float64, bool) {
	lower := strings.ToLower(strings.TrimSpace(location))
	if coords, ok := knownLocations[lower]; ok {
		return coords, true
	}
	for name, coords := range knownLocations {
		if strings.Contains(lower, name) {
			return coords, true
		}
	}
	return [2]float64{}, false
}

// haversineKm is the great-circle distance between two coordinate pairs.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
