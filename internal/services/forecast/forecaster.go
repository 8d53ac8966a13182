package forecast

import (
	"time"

	"DemandCast/internal/domain/models"
)

// Confidence decays linearly per month ahead, floored so a long horizon never
// reports near-zero certainty.
const (
	confidenceFloor = 0.4
	confidenceDecay = 0.05
)

// Input carries everything one forecast run needs. All fields are read-only;
// a run has no side effects beyond consuming jitter from the random source.
type Input struct {
	Aggregates map[string]models.PeriodAggregate
	Prices     []models.MarketPrice
	Signals    []models.SentimentSignal
	Params     models.ModelParameters
	Horizon    int
	Now        time.Time
}

// Forecaster composes the trend, seasonal and market components into
// per-month point forecasts.
type Forecaster struct {
	rng RandSource
}

func NewForecaster(rng RandSource) *Forecaster {
	if rng == nil {
		rng = NewRandSource()
	}
	return &Forecaster{rng: rng}
}

// Run produces the forecast for in.Horizon months ahead of in.Now. Missing or
// thin history degrades to neutral factors and, with zero history, an
// all-zero forecast; it never fails.
func (f *Forecaster) Run(in Input) models.ForecastResult {
	horizon := in.Horizon
	if horizon <= 0 {
		horizon = 3
	}

	histAvg := HistoricalAverage(in.Aggregates)
	quantities := QuantitySeries(in.Aggregates)
	trendFactor := TrendFactor(quantities, in.Params.TrendSensitivity)
	season := ExtractSeasonality(in.Aggregates, in.Now)
	market := MarketTrend(in.Prices, in.Params.MarketFactor)
	economic := EconomicImpact(in.Signals)

	trendCoeff := trendFactor - 1
	risks := AssessRisk(trendCoeff, season.Volatility, market.Trend, economic)
	quality := DataQuality(len(in.Aggregates))

	label := models.TrendDecreasing
	if trendFactor > 1 {
		label = models.TrendIncreasing
	}

	monthStart := time.Date(in.Now.UTC().Year(), in.Now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.ForecastPoint, 0, horizon)
	compounded := 1.0
	for i := 1; i <= horizon; i++ {
		target := monthStart.AddDate(0, i, 0)

		// Seasonality follows the target month; the weight parameter pulls
		// the factor toward neutral when seasonal patterns have been
		// unreliable for this commodity.
		raw := seasonalityForMonth(in.Aggregates, target.Month()).Factor
		seasonal := 1 + (raw-1)*in.Params.SeasonalWeight

		// Trend compounds per offset; every other factor applies flat.
		compounded *= trendFactor
		base := histAvg * compounded * seasonal * market.Multiplier * (1 + economic)

		variance := base * in.Params.VarianceTolerance
		predicted := base + (f.rng.Float64()-0.5)*variance*2
		if predicted < 0 {
			predicted = 0
		}

		confidence := in.Params.Confidence - float64(i)*confidenceDecay
		if confidence < confidenceFloor {
			confidence = confidenceFloor
		}

		points = append(points, models.ForecastPoint{
			PeriodKey:         PeriodKey(target),
			PredictedQuantity: predicted,
			Confidence:        confidence,
			TrendLabel:        label,
			Factors: models.FactorBreakdown{
				Trend:    trendFactor,
				Seasonal: seasonal,
				Market:   market.Multiplier,
				Economic: economic,
			},
		})
	}

	return models.ForecastResult{
		GeneratedAt:     in.Now.UTC(),
		MonthlyForecast: points,
		Factors: models.FactorBreakdown{
			Trend:    trendFactor,
			Seasonal: season.Factor,
			Market:   market.Multiplier,
			Economic: economic,
		},
		Recommendations:   Recommend(trendFactor, risks, season.Factor, quality, in.Params.Confidence),
		HistoricalAverage: histAvg,
		ConfidenceLevel:   in.Params.Confidence,
		RiskFactors:       risks,
		DataQuality:       quality,
	}
}
