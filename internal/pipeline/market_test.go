package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/neural-roots/freshline/internal/model"
)

func pricerRequest() model.ShipmentRequest {
	return model.ShipmentRequest{
		CropName:     "tomato",
		QuantityKg:   100,
		Urgency:      model.UrgencyMedium,
		TargetMarket: "pune",
	}
}

func excellentFreshness() model.FreshnessResult {
	return model.FreshnessResult{Score: 90, Level: model.LevelExcellent}
}

func TestPrice_WithComparables(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindComparables", mock.Anything, "tomato", "pune", mock.Anything).Return([]model.Comparable{
		{Crop: "tomato", Market: "pune", Price: 80, Demand: model.DemandHigh},
		{Crop: "tomato", Market: "pune", Price: 90, Demand: model.DemandHigh},
		{Crop: "tomato", Market: "pune", Price: 70, Demand: model.DemandNormal},
	}, nil)

	p := NewMarketPricer(ds, 72*time.Hour, 500)
	result := p.Price(context.Background(), pricerRequest(), excellentFreshness())

	assert.Equal(t, model.StageOK, result.Status)
	assert.Equal(t, 3, result.ComparablesConsulted)
	assert.Equal(t, 80.0, result.BasePrice) // (80+90+70)/3

	// freshness 1.20 * demand 1.15 (HIGH majority) * urgency 1.00 * quantity 1.00
	assert.Equal(t, 1.20, result.FreshnessMultiplier)
	assert.Equal(t, 1.15, result.DemandMultiplier)
	assert.Equal(t, 1.00, result.UrgencyMultiplier)
	assert.Equal(t, 1.00, result.QuantityMultiplier)
	assert.InDelta(t, 1.38, result.CombinedMultiplier, 0.001)

	// 80 * 1.38 = 110.4, clamped to 1.5*80 = 120 ceiling not hit
	assert.InDelta(t, 110.4, result.RecommendedPrice, 0.01)
	assert.Equal(t, StrategyPremium, result.Strategy)
}

func TestPrice_NoComparablesDegrades(t *testing.T) {
	p := NewMarketPricer(emptyDataStore(), 72*time.Hour, 500)
	result := p.Price(context.Background(), pricerRequest(), excellentFreshness())

	assert.Equal(t, model.StageDegraded, result.Status)
	assert.Equal(t, "no comparable listings found", result.StatusReason)
	assert.Equal(t, 0, result.ComparablesConsulted)
	assert.Equal(t, 80.0, result.BasePrice) // default table entry for tomato
	assert.Equal(t, 1.00, result.DemandMultiplier)
	assert.False(t, result.RecommendedPrice != result.RecommendedPrice, "price must not be NaN")
}

func TestPrice_StoreErrorDegrades(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindComparables", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	p := NewMarketPricer(ds, 72*time.Hour, 500)
	result := p.Price(context.Background(), pricerRequest(), excellentFreshness())

	assert.Equal(t, model.StageDegraded, result.Status)
	assert.Contains(t, result.StatusReason, "connection refused")
	assert.Greater(t, result.RecommendedPrice, 0.0)
}

func TestPrice_UnknownCropFallsBackToDefaultPrice(t *testing.T) {
	req := pricerRequest()
	req.CropName = "durian"
	p := NewMarketPricer(emptyDataStore(), 72*time.Hour, 500)
	result := p.Price(context.Background(), req, excellentFreshness())
	assert.Equal(t, float64(defaultBasePrice), result.BasePrice)
}

func TestPrice_BulkDiscountAppliedOnce(t *testing.T) {
	req := pricerRequest()
	req.QuantityKg = 1000
	p := NewMarketPricer(emptyDataStore(), 72*time.Hour, 500)
	result := p.Price(context.Background(), req, excellentFreshness())

	assert.Equal(t, 0.95, result.QuantityMultiplier)
	// 1.20 * 1.00 * 1.00 * 0.95 = 1.14
	assert.InDelta(t, 1.14, result.CombinedMultiplier, 0.001)
}

func TestPrice_ClampFloor(t *testing.T) {
	// CRITICAL freshness 0.50 * LOW urgency 0.92 * bulk 0.95 = 0.437,
	// below the 0.5 floor.
	req := pricerRequest()
	req.Urgency = model.UrgencyLow
	req.QuantityKg = 1000
	p := NewMarketPricer(emptyDataStore(), 72*time.Hour, 500)
	result := p.Price(context.Background(), req, model.FreshnessResult{Score: 10, Level: model.LevelCritical})

	assert.Equal(t, result.BasePrice*0.5, result.RecommendedPrice)
	assert.Equal(t, StrategyClearance, result.Strategy)
}

func TestDemandMultiplier_TieIsNeutral(t *testing.T) {
	comparables := []model.Comparable{
		{Demand: model.DemandHigh},
		{Demand: model.DemandLow},
	}
	assert.Equal(t, 1.00, demandMultiplier(comparables))
	assert.Equal(t, 1.00, demandMultiplier(nil))
}

func TestDemandMultiplier_Majorities(t *testing.T) {
	assert.Equal(t, 1.15, demandMultiplier([]model.Comparable{
		{Demand: model.DemandHigh}, {Demand: model.DemandHigh}, {Demand: model.DemandLow},
	}))
	assert.Equal(t, 0.85, demandMultiplier([]model.Comparable{
		{Demand: model.DemandLow}, {Demand: model.DemandLow}, {Demand: model.DemandNormal},
	}))
	// NORMAL plurality stays neutral.
	assert.Equal(t, 1.00, demandMultiplier([]model.Comparable{
		{Demand: model.DemandNormal}, {Demand: model.DemandNormal}, {Demand: model.DemandHigh},
	}))
}

func TestStrategyFor_Thresholds(t *testing.T) {
	assert.Equal(t, StrategyPremium, strategyFor(1.15))
	assert.Equal(t, StrategyAboveMarket, strategyFor(1.05))
	assert.Equal(t, StrategyMarketPlus, strategyFor(0.98))
	assert.Equal(t, StrategyMarketRate, strategyFor(0.90))
	assert.Equal(t, StrategyCompetitive, strategyFor(0.70))
	assert.Equal(t, StrategyClearance, strategyFor(0.69))
}
