package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neural-roots/freshline/internal/model"
	"github.com/neural-roots/freshline/internal/store"
)

// defaultBasePrices is the built-in fallback price table (per kg) used when no
// comparable listings are available. Unknown crops get defaultBasePrice.
var defaultBasePrices = map[string]float64{
	"tomato":       80,
	"onion":        40,
	"potato":       30,
	"carrot":       40,
	"cucumber":     35,
	"spinach":      40,
	"lettuce":      40,
	"leafy_greens": 40,
	"mango":        150,
	"banana":       40,
	"grape":        120,
	"orange":       60,
	"apple":        150,
	"papaya":       35,
	"ginger":       120,
	"garlic":       150,
}

const defaultBasePrice = 50

// Pricing strategy labels, keyed off the combined multiplier.
const (
	StrategyPremium     = "PREMIUM_PRICING"
	StrategyAboveMarket = "ABOVE_MARKET"
	StrategyMarketPlus  = "MARKET_RATE_PLUS"
	StrategyMarketRate  = "MARKET_RATE"
	StrategyCompetitive = "COMPETITIVE_DISCOUNT"
	StrategyClearance   = "CLEARANCE_PRICING"
)

// MarketPricer turns comparable listings plus freshness, urgency and quantity
// into a recommended price. It degrades to the default price table when data
// is missing; it never fails hard.
type MarketPricer struct {
	store           store.DataStore
	window          time.Duration
	bulkThresholdKg float64
}

// NewMarketPricer builds a pricer over the given data store.
func NewMarketPricer(ds store.DataStore, window time.Duration, bulkThresholdKg float64) *MarketPricer {
	return &MarketPricer{store: ds, window: window, bulkThresholdKg: bulkThresholdKg}
}

// Price computes the market recommendation for the request.
func (p *MarketPricer) Price(ctx context.Context, req model.ShipmentRequest, freshness model.FreshnessResult) model.MarketResult {
	log := zap.L().With(zap.String("crop", req.CropName), zap.String("market", req.TargetMarket))

	result := model.MarketResult{Status: model.StageOK}

	comparables, err := p.store.FindComparables(ctx, req.CropName, req.TargetMarket, p.window)
	switch {
	case err != nil:
		result.Status = model.StageDegraded
		result.StatusReason = "data store unavailable: " + err.Error()
		log.Warn("market: comparables lookup failed, using default prices", zap.Error(err))
	case len(comparables) == 0:
		result.Status = model.StageDegraded
		result.StatusReason = "no comparable listings found"
		log.Info("market: no comparables, using default prices")
	}

	result.ComparablesConsulted = len(comparables)
	result.BasePrice = basePrice(req.CropName, comparables)

	result.FreshnessMultiplier = freshnessMultiplier(freshness.Score)
	result.DemandMultiplier = demandMultiplier(comparables)
	result.UrgencyMultiplier = urgencyMultiplier(req.Urgency)
	result.QuantityMultiplier = quantityMultiplier(req.QuantityKg, p.bulkThresholdKg)

	combined := result.FreshnessMultiplier * result.DemandMultiplier * result.UrgencyMultiplier * result.QuantityMultiplier
	result.CombinedMultiplier = round2(combined)

	price := result.BasePrice * combined
	price = clamp(price, result.BasePrice*0.5, result.BasePrice*1.5)
	result.RecommendedPrice = round2(price)
	result.Strategy = strategyFor(combined)

	result.Notes = append(result.Notes,
		fmt.Sprintf("Recommended price %.2f per kg (%s)", result.RecommendedPrice, result.Strategy))
	if result.Status == model.StageDegraded {
		result.Notes = append(result.Notes, "Pricing based on default table; verify against local market")
	}

	return result
}

// basePrice averages comparable prices; with none it falls back to the
// built-in table.
func basePrice(crop string, comparables []model.Comparable) float64 {
	if len(comparables) > 0 {
		var sum float64
		for _, c := range comparables {
			sum += c.Price
		}
		return round2(sum / float64(len(comparables)))
	}
	lower := strings.ToLower(strings.TrimSpace(crop))
	if price, ok := defaultBasePrices[lower]; ok {
		return price
	}
	if price, ok := defaultBasePrices[normalizeCrop(crop)]; ok {
		return price
	}
	return defaultBasePrice
}

// freshnessMultiplier rewards fresh produce and discounts declining stock.
func freshnessMultiplier(score float64) float64 {
	switch {
	case score >= 80:
		return 1.20
	case score >= 60:
		return 1.10
	case score >= 40:
		return 0.95
	case score >= 20:
		return 0.75
	default:
		return 0.50
	}
}

// demandMultiplier follows the majority demand label among comparables.
// Ties, including the zero-comparable case, resolve to neutral.
func demandMultiplier(comparables []model.Comparable) float64 {
	var high, low int
	for _, c := range comparables {
		switch c.Demand {
		case model.DemandHigh:
			high++
		case model.DemandLow:
			low++
		}
	}
	switch {
	case high > low && high > len(comparables)-high-low:
		return 1.15
	case low > high && low > len(comparables)-high-low:
		return 0.85
	default:
		return 1.00
	}
}

func urgencyMultiplier(u model.Urgency) float64 {
	switch u {
	case model.UrgencyCritical:
		return 1.15
	case model.UrgencyHigh:
		return 1.08
	case model.UrgencyLow:
		return 0.92
	default:
		return 1.00
	}
}

// quantityMultiplier applies a single bulk discount above the threshold.
func quantityMultiplier(quantityKg, thresholdKg float64) float64 {
	if quantityKg > thresholdKg {
		return 0.95
	}
	return 1.00
}

func strategyFor(combined float64) string {
	switch {
	case combined >= 1.15:
		return StrategyPremium
	case combined >= 1.05:
		return StrategyAboveMarket
	case combined >= 0.98:
		return StrategyMarketPlus
	case combined >= 0.90:
		return StrategyMarketRate
	case combined >= 0.70:
		return StrategyCompetitive
	default:
		return StrategyClearance
	}
}
