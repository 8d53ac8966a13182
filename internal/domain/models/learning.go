package models

import "time"

// ModelParameters are the per-commodity tuning knobs the learning engine owns.
// Everything else in the engine treats them as read-only input.
type ModelParameters struct {
	TrendSensitivity  float64 `json:"trend_sensitivity"`
	SeasonalWeight    float64 `json:"seasonal_weight"`
	MarketFactor      float64 `json:"market_factor"`
	Confidence        float64 `json:"confidence"`
	VarianceTolerance float64 `json:"variance_tolerance"`
}

// DefaultParameters returns the starting point for a commodity with no
// learning history.
func DefaultParameters() ModelParameters {
	return ModelParameters{
		TrendSensitivity:  1.0,
		SeasonalWeight:    1.0,
		MarketFactor:      1.0,
		Confidence:        0.8,
		VarianceTolerance: 0.15,
	}
}

// Clamp bounds every parameter to its safe range. Applied after any
// learning update so a bad nudge can never push the model into runaway
// territory.
func (p ModelParameters) Clamp() ModelParameters {
	p.TrendSensitivity = clampF(p.TrendSensitivity, 0.5, 1.5)
	p.SeasonalWeight = clampF(p.SeasonalWeight, 0.5, 1.5)
	p.MarketFactor = clampF(p.MarketFactor, 0.5, 1.5)
	p.Confidence = clampF(p.Confidence, 0.4, 0.95)
	p.VarianceTolerance = clampF(p.VarianceTolerance, 0.05, 0.3)
	return p
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StoredParameters is what the parameter store persists per commodity.
// SampleWatermark records how many resolved predictions the last learning
// pass saw; repeated improvement calls with no new outcomes are no-ops.
// Version supports the store's optimistic-concurrency check.
type StoredParameters struct {
	Params          ModelParameters `json:"params"`
	Version         uint64          `json:"version"`
	SampleWatermark int             `json:"sample_watermark"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PredictionRecord ties a forecast point to its eventual observed outcome.
// Created unresolved at prediction time; resolved exactly once when the
// actual value arrives. Never deleted; records are the learning signal.
type PredictionRecord struct {
	ID             string    `json:"id"`
	CommodityID    string    `json:"commodity_id"`
	PredictedValue float64   `json:"predicted_value"`
	PeriodLabel    string    `json:"period_label"`
	MonthsAhead    int       `json:"months_ahead"`
	FactorsUsed    []string  `json:"factors_used"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`

	Resolved    bool      `json:"resolved"`
	ActualValue float64   `json:"actual_value,omitempty"`
	AccuracyPct float64   `json:"accuracy_percentage,omitempty"`
	OutcomeDate time.Time `json:"outcome_date,omitempty"`
}

// LearningMetrics is derived on demand from resolved prediction records.
type LearningMetrics struct {
	CommodityID               string             `json:"commodity_id"`
	SampleCount               int                `json:"sample_count"`
	OverallAccuracy           float64            `json:"overall_accuracy"`
	AccuracyByTimeframe       map[string]float64 `json:"accuracy_by_timeframe"`
	ImprovingFactors          []string           `json:"improving_factors"`
	DecliningFactors          []string           `json:"declining_factors"`
	RecommendationAdjustments []string           `json:"recommendation_adjustments"`
}
