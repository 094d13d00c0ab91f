package model

import "time"

// FreshnessLevel buckets a 0-100 freshness score.
type FreshnessLevel string

const (
	LevelExcellent FreshnessLevel = "EXCELLENT"
	LevelGood      FreshnessLevel = "GOOD"
	LevelFair      FreshnessLevel = "FAIR"
	LevelPoor      FreshnessLevel = "POOR"
	LevelCritical  FreshnessLevel = "CRITICAL"
)

// LevelForScore maps a score to its freshness level.
// Thresholds: >=80 EXCELLENT, >=60 GOOD, >=40 FAIR, >=20 POOR, else CRITICAL.
func LevelForScore(score float64) FreshnessLevel {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelFair
	case score >= 20:
		return LevelPoor
	default:
		return LevelCritical
	}
}

// DeliveryMode is the transport tier selected by the logistics stage.
type DeliveryMode string

const (
	ModeStandard     DeliveryMode = "standard"
	ModeRefrigerated DeliveryMode = "refrigerated"
	ModeColdChain    DeliveryMode = "cold_chain"
)

// RiskLevel buckets the weather risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// StageStatus marks whether a stage produced real or fallback output.
type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
)

// ForecastSource records where the weather stage got its data.
type ForecastSource string

const (
	ForecastFetched   ForecastSource = "fetched"
	ForecastSimulated ForecastSource = "simulated"
)

// FreshnessResult is the output of the freshness stage.
type FreshnessResult struct {
	Score         float64        `json:"score"`
	Level         FreshnessLevel `json:"level"`
	TempScore     float64        `json:"temp_score"`
	HumidityScore float64        `json:"humidity_score"`
	AgeScore      float64        `json:"age_score"`
	CropType      string         `json:"crop_type"`
	Notes         []string       `json:"notes"`
}

// MarketResult is the output of the market pricing stage.
type MarketResult struct {
	BasePrice            float64     `json:"base_price"`
	FreshnessMultiplier  float64     `json:"freshness_multiplier"`
	DemandMultiplier     float64     `json:"demand_multiplier"`
	UrgencyMultiplier    float64     `json:"urgency_multiplier"`
	QuantityMultiplier   float64     `json:"quantity_multiplier"`
	CombinedMultiplier   float64     `json:"combined_multiplier"`
	RecommendedPrice     float64     `json:"recommended_price"`
	Strategy             string      `json:"strategy"`
	ComparablesConsulted int         `json:"comparables_consulted"`
	Status               StageStatus `json:"status"`
	StatusReason         string      `json:"status_reason,omitempty"`
	Notes                []string    `json:"notes,omitempty"`
}

// RankedCarrier is one carrier with its suitability score.
type RankedCarrier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	VehicleType string  `json:"vehicle_type"`
	Rating      float64 `json:"rating"`
	Suitability float64 `json:"suitability"`
}

// LogisticsResult is the output of the logistics selection stage.
type LogisticsResult struct {
	Mode           DeliveryMode    `json:"delivery_mode"`
	Feasible       bool            `json:"feasible"`
	EstimatedCost  float64         `json:"estimated_cost"`
	EstimatedHours float64         `json:"estimated_hours"`
	Carriers       []RankedCarrier `json:"carriers"`
	Status         StageStatus     `json:"status"`
	StatusReason   string          `json:"status_reason,omitempty"`
	Notes          []string        `json:"notes,omitempty"`
}

// WeatherResult is the output of the weather risk stage.
type WeatherResult struct {
	RiskLevel       RiskLevel      `json:"risk_level"`
	RiskScore       int            `json:"risk_score"`
	DegradationRate float64        `json:"degradation_rate"`
	TransitHours    float64        `json:"transit_hours"`
	EstimatedLoss   float64        `json:"estimated_loss"`
	Source          ForecastSource `json:"forecast_source"`
	Status          StageStatus    `json:"status"`
	StatusReason    string         `json:"status_reason,omitempty"`
	Notes           []string       `json:"notes,omitempty"`
}

// ActionItem is one prioritized operator action.
type ActionItem struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Detail   string `json:"detail"`
}

// SynthesisResult combines the four stage outputs into the final assessment.
type SynthesisResult struct {
	FinalScore        float64        `json:"final_score"`
	FinalLevel        FreshnessLevel `json:"final_level"`
	BaseScore         float64        `json:"base_score"`
	WeatherLoss       float64        `json:"weather_loss"`
	PreservationBonus float64        `json:"preservation_bonus"`
	ActionItems       []ActionItem   `json:"action_items"`
	Recommendations   []string       `json:"recommendations"`
}

// WorkflowStatus is the overall outcome of a workflow execution.
type WorkflowStatus string

const (
	WorkflowCompleted         WorkflowStatus = "completed"
	WorkflowCompletedDegraded WorkflowStatus = "completed_degraded"
)

// WorkflowRecord is the durable result of one assessment.
type WorkflowRecord struct {
	ID        string          `json:"id"`
	Request   ShipmentRequest `json:"request"`
	Freshness FreshnessResult `json:"freshness"`
	Market    MarketResult    `json:"market"`
	Logistics LogisticsResult `json:"logistics"`
	Weather   WeatherResult   `json:"weather"`
	Synthesis SynthesisResult `json:"synthesis"`
	Status    WorkflowStatus  `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Health reports orchestrator liveness counters.
type Health struct {
	StagesLoaded      int `json:"stages_loaded"`
	WorkflowsExecuted int `json:"workflows_executed"`
}
