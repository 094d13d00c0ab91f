package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/neural-roots/freshline/internal/model"
)

func logisticsRequest() model.ShipmentRequest {
	return model.ShipmentRequest{
		CropName:   "mango",
		QuantityKg: 500,
		Origin:     "nashik",
		DistanceKm: 200,
		Urgency:    model.UrgencyHigh,
	}
}

func testCarriers() []model.Carrier {
	return []model.Carrier{
		{
			ID:             "c1",
			Name:           "Alpha",
			Location:       "nashik",
			CapacityKg:     2000,
			Rating:         4.5,
			VehicleType:    model.ModeColdChain,
			Capabilities:   []model.DeliveryMode{model.ModeStandard, model.ModeRefrigerated, model.ModeColdChain},
			AvailableHours: 24,
			Latitude:       floatPtr(19.99),
			Longitude:      floatPtr(73.79),
		},
		{
			ID:             "c2",
			Name:           "Beta",
			Location:       "nashik",
			CapacityKg:     800,
			Rating:         4.8,
			VehicleType:    model.ModeColdChain,
			Capabilities:   []model.DeliveryMode{model.ModeStandard, model.ModeColdChain},
			AvailableHours: 12,
		},
		{
			ID:             "c3",
			Name:           "Gamma",
			Location:       "nashik",
			CapacityKg:     300,
			Rating:         5.0,
			VehicleType:    model.ModeColdChain,
			Capabilities:   []model.DeliveryMode{model.ModeColdChain},
			AvailableHours: 24,
		},
		{
			ID:             "c4",
			Name:           "Delta",
			Location:       "nashik",
			CapacityKg:     2000,
			Rating:         4.9,
			VehicleType:    model.ModeStandard,
			Capabilities:   []model.DeliveryMode{model.ModeStandard},
			AvailableHours: 24,
		},
	}
}

func TestSelect_PoorFreshnessGetsColdChain(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindAvailableCarriers", mock.Anything, "nashik", model.ModeColdChain).Return(testCarriers(), nil)

	s := NewLogisticsSelector(ds, 600)
	result := s.Select(context.Background(), logisticsRequest(), model.FreshnessResult{Level: model.LevelPoor})

	assert.Equal(t, model.ModeColdChain, result.Mode)
	assert.Equal(t, model.StageOK, result.Status)
	assert.True(t, result.Feasible)
	// 0.80/km * 200km * 1.5 = 240; 200/60 = 3.33h
	assert.Equal(t, 240.0, result.EstimatedCost)
	assert.InDelta(t, 3.33, result.EstimatedHours, 0.01)
}

func TestSelect_LongHaulEscalatesOneTier(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindAvailableCarriers", mock.Anything, mock.Anything, model.ModeRefrigerated).Return([]model.Carrier{}, nil)

	req := logisticsRequest()
	req.DistanceKm = 601
	s := NewLogisticsSelector(ds, 600)
	result := s.Select(context.Background(), req, model.FreshnessResult{Level: model.LevelExcellent})

	assert.Equal(t, model.ModeRefrigerated, result.Mode)
}

func TestSelect_LongHaulBoundaryIsExclusive(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindAvailableCarriers", mock.Anything, mock.Anything, model.ModeStandard).Return([]model.Carrier{}, nil)

	req := logisticsRequest()
	req.DistanceKm = 600
	s := NewLogisticsSelector(ds, 600)
	result := s.Select(context.Background(), req, model.FreshnessResult{Level: model.LevelExcellent})

	assert.Equal(t, model.ModeStandard, result.Mode)
}

func TestSelect_NoCarriersInfeasibleButNotDegraded(t *testing.T) {
	s := NewLogisticsSelector(emptyDataStore(), 600)
	result := s.Select(context.Background(), logisticsRequest(), model.FreshnessResult{Level: model.LevelPoor})

	assert.False(t, result.Feasible)
	assert.Empty(t, result.Carriers)
	assert.Equal(t, model.StageOK, result.Status)
	assert.Greater(t, result.EstimatedCost, 0.0)
	assert.Greater(t, result.EstimatedHours, 0.0)
}

func TestSelect_StoreErrorDegrades(t *testing.T) {
	ds := &mockDataStore{}
	ds.On("FindAvailableCarriers", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	s := NewLogisticsSelector(ds, 600)
	result := s.Select(context.Background(), logisticsRequest(), model.FreshnessResult{Level: model.LevelPoor})

	assert.Equal(t, model.StageDegraded, result.Status)
	assert.Contains(t, result.StatusReason, "timeout")
	assert.False(t, result.Feasible)
}

func TestRankCarriers_FiltersIneligible(t *testing.T) {
	ranked := rankCarriers(testCarriers(), logisticsRequest(), model.ModeColdChain)

	// c3 lacks capacity (300 < 500); c4 lacks the cold_chain capability.
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	assert.NotContains(t, ids, "c3")
	assert.NotContains(t, ids, "c4")
	assert.Len(t, ranked, 2)
}

func TestRankCarriers_StableUnderPermutation(t *testing.T) {
	req := logisticsRequest()
	carriers := testCarriers()
	baseline := rankCarriers(carriers, req, model.ModeColdChain)

	reversed := make([]model.Carrier, len(carriers))
	for i, c := range carriers {
		reversed[len(carriers)-1-i] = c
	}
	assert.Equal(t, baseline, rankCarriers(reversed, req, model.ModeColdChain))
}

func TestSuitability_RenormalizedWithoutProximity(t *testing.T) {
	req := logisticsRequest()
	withCoords := testCarriers()[0]
	withoutCoords := withCoords
	withoutCoords.Latitude = nil
	withoutCoords.Longitude = nil

	origin, ok := locationCoords(req.Origin)
	assert.True(t, ok)

	a := suitability(withCoords, req, model.ModeColdChain, origin, true)
	b := suitability(withoutCoords, req, model.ModeColdChain, origin, true)

	// c1 maxes capacity (30), rating 4.5/5*20=18, vehicle 20, availability 10
	// = 78 raw. With near-origin coords proximity adds close to 10; without
	// coords the 78 is scaled by 100/90 = 86.67.
	assert.InDelta(t, 88, a, 0.5)
	assert.InDelta(t, 86.67, b, 0.01)
	assert.LessOrEqual(t, a, 100.0)
	assert.LessOrEqual(t, b, 100.0)
}

func TestVehicleSuitability(t *testing.T) {
	assert.Equal(t, 20.0, vehicleSuitability(model.ModeColdChain, model.ModeColdChain))
	assert.Equal(t, 15.0, vehicleSuitability(model.ModeColdChain, model.ModeRefrigerated))
	assert.Equal(t, 15.0, vehicleSuitability(model.ModeRefrigerated, model.ModeStandard))
	assert.Equal(t, 20.0, vehicleSuitability(model.ModeStandard, model.ModeStandard))
	assert.Equal(t, 0.0, vehicleSuitability(model.ModeStandard, model.ModeColdChain))
}

func TestLocationCoords(t *testing.T) {
	_, ok := locationCoords("Pune")
	assert.True(t, ok)
	_, ok = locationCoords("Nashik, Maharashtra")
	assert.True(t, ok)
	_, ok = locationCoords("Atlantis")
	assert.False(t, ok)
}
