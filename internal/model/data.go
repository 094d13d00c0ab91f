package model

import "time"

// DemandLabel tags a comparable listing's observed demand.
type DemandLabel string

const (
	DemandLow    DemandLabel = "LOW"
	DemandNormal DemandLabel = "NORMAL"
	DemandHigh   DemandLabel = "HIGH"
)

// Comparable is one recent market listing for a crop near a target market.
type Comparable struct {
	Crop      string      `json:"crop"`
	Market    string      `json:"market"`
	Price     float64     `json:"price"`
	Demand    DemandLabel `json:"demand"`
	Timestamp time.Time   `json:"timestamp"`
}

// Carrier is one transport provider as returned by the data store.
type Carrier struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Location       string         `json:"location"`
	CapacityKg     float64        `json:"capacity_kg"`
	Rating         float64        `json:"rating"` // 0-5
	VehicleType    DeliveryMode   `json:"vehicle_type"`
	Capabilities   []DeliveryMode `json:"capabilities"`
	AvailableHours float64        `json:"available_hours"`
	Latitude       *float64       `json:"latitude,omitempty"`
	Longitude      *float64       `json:"longitude,omitempty"`
}

// HasCapability reports whether the carrier can run the given mode.
func (c Carrier) HasCapability(mode DeliveryMode) bool {
	if mode == ModeStandard {
		return true
	}
	for _, capability := range c.Capabilities {
		if capability == mode {
			return true
		}
		// Cold-chain vehicles can serve refrigerated loads.
		if mode == ModeRefrigerated && capability == ModeColdChain {
			return true
		}
	}
	return false
}

// ForecastPoint is one hourly weather observation or prediction.
type ForecastPoint struct {
	Location      string    `json:"location"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	Precipitation float64   `json:"precipitation"`
	WindSpeed     float64   `json:"wind_speed"`
	Timestamp     time.Time `json:"timestamp"`
}
