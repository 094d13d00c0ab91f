package pipeline

import (
	"math"
	"strings"

	"github.com/neural-roots/freshline/internal/model"
)

// cropProfile holds the optimal storage band and shelf life for a crop type.
type cropProfile struct {
	tempMin, tempMax         float64 // °C
	humidityMin, humidityMax float64 // %
	shelfLifeDays            float64
}

// cropProfiles covers the crop types with known storage characteristics.
// Unknown crops fall back to defaultProfile.
var cropProfiles = map[string]cropProfile{
	"tomato":       {20, 25, 85, 95, 7},
	"onion":        {0, 5, 65, 70, 60},
	"mango":        {13, 18, 80, 90, 14},
	"potato":       {4, 10, 85, 95, 90},
	"carrot":       {0, 4, 90, 95, 60},
	"cucumber":     {10, 15, 85, 90, 5},
	"leafy_greens": {0, 5, 90, 95, 3},
}

var defaultProfile = cropProfiles["tomato"]

// cropAliases maps common names onto profile keys.
var cropAliases = map[string]string{
	"lettuce": "leafy_greens",
	"spinach": "leafy_greens",
	"kale":    "leafy_greens",
}

// normalizeCrop resolves a free-form crop name to a profile key. Matching is
// case-insensitive and substring-based ("cherry tomato" resolves to tomato).
func normalizeCrop(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if _, ok := cropProfiles[lower]; ok {
		return lower
	}
	for alias, key := range cropAliases {
		if strings.Contains(lower, alias) {
			return key
		}
	}
	for key := range cropProfiles {
		if strings.Contains(lower, key) {
			return key
		}
	}
	return lower
}

// freshnessWeights combine the three factor scores.
const (
	tempWeight     = 0.30
	humidityWeight = 0.40
	ageWeight      = 0.30
)

// envScore rates a measurement against an optimal band: 100 inside the band,
// minus 5 points per unit of distance outside it, floored at 0.
func envScore(value, optimalMin, optimalMax float64) float64 {
	if value >= optimalMin && value <= optimalMax {
		return 100
	}
	distance := optimalMin - value
	if value > optimalMax {
		distance = value - optimalMax
	}
	return math.Max(0, 100-distance*5)
}

// ageScore decays linearly over the crop's shelf life.
func ageScore(ageHours, shelfLifeDays float64) float64 {
	shelfLifeHours := shelfLifeDays * 24
	if shelfLifeHours <= 0 {
		return 0
	}
	return math.Max(0, 100-ageHours*(100/shelfLifeHours))
}

// ScoreFreshness converts storage conditions into a 0-100 freshness score.
// This stage is required: an error here aborts the whole workflow.
func ScoreFreshness(req model.ShipmentRequest) (model.FreshnessResult, error) {
	cropType := normalizeCrop(req.CropName)
	profile, ok := cropProfiles[cropType]
	if !ok {
		profile = defaultProfile
	}

	tempScore := envScore(req.Temperature, profile.tempMin, profile.tempMax)
	humidityScore := envScore(req.Humidity, profile.humidityMin, profile.humidityMax)
	age := ageScore(req.AgeHours, profile.shelfLifeDays)

	score := tempScore*tempWeight + humidityScore*humidityWeight + age*ageWeight
	score = clamp(score, 0, 100)
	if math.IsNaN(score) {
		return model.FreshnessResult{}, &model.FreshnessComputationError{Reason: "score is not a number"}
	}

	level := model.LevelForScore(score)
	return model.FreshnessResult{
		Score:         round2(score),
		Level:         level,
		TempScore:     round2(tempScore),
		HumidityScore: round2(humidityScore),
		AgeScore:      round2(age),
		CropType:      cropType,
		Notes:         freshnessNotes(level),
	}, nil
}

// freshnessNotes are the advisory notes shown to the operator per level.
func freshnessNotes(level model.FreshnessLevel) []string {
	switch level {
	case model.LevelExcellent:
		return []string{
			"Ready for immediate market distribution",
			"Maintain current storage conditions",
			"Can withstand longer transportation",
		}
	case model.LevelGood:
		return []string{
			"Suitable for distribution",
			"Monitor storage conditions closely",
			"Prioritize sales within 2-3 days",
		}
	case model.LevelFair:
		return []string{
			"Use priority shipping",
			"Increase market urgency",
			"Consider discounted pricing",
			"Check for visible deterioration",
		}
	case model.LevelPoor:
		return []string{
			"Immediate distribution required",
			"High discount pricing",
			"Risk of waste within 24-48 hours",
			"Local markets preferred",
		}
	default:
		return []string{
			"Do not distribute - risk of spoilage",
			"Consider compost or waste disposal",
			"Investigate storage failure",
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
