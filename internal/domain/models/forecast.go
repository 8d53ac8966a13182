package models

import "time"

// TransactionRecord is one historical sale/consumption event for a commodity.
// Owned by the history store; the engine only reads it.
type TransactionRecord struct {
	Timestamp   time.Time
	CommodityID string
	Quantity    float64 // units, never negative
	UnitPrice   float64
}

// PeriodAggregate summarizes one calendar month of transactions.
// PeriodKey is "YYYY-MM" derived from the transaction timestamp in UTC.
type PeriodAggregate struct {
	PeriodKey     string  `json:"period"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	RecordCount   int     `json:"record_count"`
	AveragePrice  float64 `json:"average_price"`
}

// MarketPrice is one external price observation for a commodity.
type MarketPrice struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Sentiment classification of an external macro signal.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Growth-forecast tags carried by macro signals.
const (
	GrowthIncreasing = "increasing"
	GrowthDecreasing = "decreasing"
	GrowthStable     = "stable"
)

// SentimentSignal is a qualitative macro/market indicator record.
type SentimentSignal struct {
	Timestamp      time.Time `json:"timestamp"`
	Sentiment      string    `json:"sentiment"`
	GrowthForecast string    `json:"growth_forecast"`
}

// Trend labels attached to forecast points.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// Data quality tiers reflecting how much history backed a forecast.
const (
	DataQualityHigh   = "high"   // >= 12 monthly aggregates
	DataQualityMedium = "medium" // >= 6
	DataQualityLow    = "low"
)

// FactorBreakdown exposes the multipliers that produced a forecast.
type FactorBreakdown struct {
	Trend    float64 `json:"trend"`
	Seasonal float64 `json:"seasonal"`
	Market   float64 `json:"market"`
	Economic float64 `json:"economic"`
}

// ForecastPoint is a single-month prediction. Immutable once produced.
type ForecastPoint struct {
	PeriodKey         string          `json:"period"`
	PredictedQuantity float64         `json:"predicted_quantity"`
	Confidence        float64         `json:"confidence"`
	TrendLabel        string          `json:"trend_label"`
	Factors           FactorBreakdown `json:"factors"`
}

// ForecastResult is the full response for one forecast request.
type ForecastResult struct {
	CommodityID       string          `json:"commodity_id"`
	GeneratedAt       time.Time       `json:"generated_at"`
	MonthlyForecast   []ForecastPoint `json:"monthly_forecast"`
	Factors           FactorBreakdown `json:"factors"`
	Recommendations   []string        `json:"recommendations"`
	HistoricalAverage float64         `json:"historical_average"`
	ConfidenceLevel   float64         `json:"confidence_level"`
	RiskFactors       []string        `json:"risk_factors"`
	DataQuality       string          `json:"data_quality"`
	PredictionIDs     []string        `json:"prediction_ids,omitempty"`
}
