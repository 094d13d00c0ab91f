package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neural-roots/freshline/internal/model"
	"github.com/neural-roots/freshline/internal/store"
)

// degradationBase is the freshness loss in points per transit hour, by risk.
var degradationBase = map[model.RiskLevel]float64{
	model.RiskLow:      0.5,
	model.RiskMedium:   1.0,
	model.RiskHigh:     2.0,
	model.RiskCritical: 4.0,
}

// cropSensitivity scales degradation by how fragile the crop is.
var cropSensitivity = map[string]float64{
	"tomato":       1.2,
	"leafy_greens": 1.5,
	"mango":        0.8,
	"potato":       0.5,
	"onion":        0.4,
}

// transitSpeedKmh is the flat speed assumption for the weather exposure
// window. It is deliberately independent of the logistics mode so the stage
// can run concurrently with logistics selection.
const transitSpeedKmh = 50.0

// WeatherAssessor estimates transit weather risk and expected freshness loss.
type WeatherAssessor struct {
	store store.DataStore
	now   func() time.Time
}

// NewWeatherAssessor builds an assessor over the given data store.
func NewWeatherAssessor(ds store.DataStore) *WeatherAssessor {
	return &WeatherAssessor{store: ds, now: func() time.Time { return time.Now().UTC() }}
}

// Assess computes the weather risk for the shipment's transit window. When
// the store has no forecast for the origin, or errors, the stage degrades to
// a deterministic simulation instead of failing.
func (w *WeatherAssessor) Assess(ctx context.Context, req model.ShipmentRequest) model.WeatherResult {
	log := zap.L().With(zap.String("origin", req.Origin), zap.String("crop", req.CropName))

	transitHours := req.DistanceKm / transitSpeedKmh
	window := time.Duration(transitHours * float64(time.Hour))

	result := model.WeatherResult{
		Source:       model.ForecastFetched,
		Status:       model.StageOK,
		TransitHours: round2(transitHours),
	}

	points, err := w.store.FindForecast(ctx, req.Origin, window)
	switch {
	case err != nil:
		result.Source = model.ForecastSimulated
		result.Status = model.StageDegraded
		result.StatusReason = "data store unavailable: " + err.Error()
		points = w.simulateForecast(req.Origin)
		log.Warn("weather: forecast lookup failed, simulating", zap.Error(err))
	case len(points) == 0:
		result.Source = model.ForecastSimulated
		result.Status = model.StageDegraded
		result.StatusReason = "no forecast data for origin"
		points = w.simulateForecast(req.Origin)
		log.Info("weather: no forecast data, simulating")
	}

	result.RiskScore = riskScore(points)
	result.RiskLevel = riskLevelFor(result.RiskScore)

	sensitivity, ok := cropSensitivity[normalizeCrop(req.CropName)]
	if !ok {
		sensitivity = 1.0
	}
	result.DegradationRate = round2(degradationBase[result.RiskLevel] * sensitivity)
	result.EstimatedLoss = round2(result.DegradationRate * transitHours)
	result.Notes = weatherNotes(result.RiskLevel, result.EstimatedLoss)

	return result
}

// riskScore accumulates penalty points from forecast aggregates.
// Average temperature strictly outside [5,35] adds 40, outside [10,30] adds
// 20; average humidity strictly outside [60,95] adds 25; any precipitation
// adds 20; peak wind over 40 km/h adds 15. Band edges are safe.
func riskScore(points []model.ForecastPoint) int {
	if len(points) == 0 {
		return 0
	}

	var tempSum, humiditySum, precipSum, maxWind float64
	for _, p := range points {
		tempSum += p.Temperature
		humiditySum += p.Humidity
		precipSum += p.Precipitation
		if p.WindSpeed > maxWind {
			maxWind = p.WindSpeed
		}
	}
	avgTemp := tempSum / float64(len(points))
	avgHumidity := humiditySum / float64(len(points))

	score := 0
	switch {
	case avgTemp < 5 || avgTemp > 35:
		score += 40
	case avgTemp < 10 || avgTemp > 30:
		score += 20
	}
	if avgHumidity < 60 || avgHumidity > 95 {
		score += 25
	}
	if precipSum > 0 {
		score += 20
	}
	if maxWind > 40 {
		score += 15
	}
	return score
}

func riskLevelFor(score int) model.RiskLevel {
	switch {
	case score >= 70:
		return model.RiskCritical
	case score >= 50:
		return model.RiskHigh
	case score >= 30:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// simulateForecast produces a plausible 24h forecast seeded by the origin and
// the current UTC calendar day. Point timestamps start at the day boundary, so
// repeated assessments anywhere in the same day for the same origin see an
// identical forecast, timestamps included.
func (w *WeatherAssessor) simulateForecast(location string) []model.ForecastPoint {
	day := w.now().Format("2006-01-02")
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(location)) + "|" + day))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	// Temperature 18-35 °C, humidity 50-95 %, wind 5-45 km/h, mostly dry.
	base := w.now().Truncate(24 * time.Hour)
	points := make([]model.ForecastPoint, 0, 24)
	for i := 0; i < 24; i++ {
		points = append(points, model.ForecastPoint{
			Location:      location,
			Temperature:   18 + rng.Float64()*17,
			Humidity:      50 + rng.Float64()*45,
			Precipitation: maxZero(rng.Float64()*10 - 7),
			WindSpeed:     5 + rng.Float64()*40,
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	return points
}

func maxZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func weatherNotes(level model.RiskLevel, loss float64) []string {
	notes := []string{fmt.Sprintf("Expected freshness loss in transit: %.1f points", loss)}
	switch level {
	case model.RiskCritical:
		notes = append(notes,
			"Severe weather on route - delay shipment if possible",
			"If shipping is unavoidable, use maximum preservation measures")
	case model.RiskHigh:
		notes = append(notes,
			"Adverse weather expected - use insulated or refrigerated transport",
			"Plan for possible route delays")
	case model.RiskMedium:
		notes = append(notes, "Minor weather exposure - standard precautions apply")
	default:
		notes = append(notes, "Weather conditions favorable for transport")
	}
	return notes
}
