package forecast

import "DemandCast/internal/domain/models"

// MarketSignal is the blended external price-trend signal.
type MarketSignal struct {
	Trend      float64 // normalized recent-vs-early price movement, scaled
	Multiplier float64 // 1 + Trend*0.1, consumed by the forecaster
}

// windowEdge is how many price points each end of the window contributes to
// the recent-vs-early comparison.
const windowEdge = 10

// MarketTrend compares the mean of the most recent price points against the
// earliest ones in the window. Fewer than two observations carry no signal,
// so the contribution is neutral.
func MarketTrend(prices []models.MarketPrice, marketFactor float64) MarketSignal {
	if len(prices) < 2 {
		return MarketSignal{Trend: 0, Multiplier: 1}
	}

	edge := windowEdge
	if edge > len(prices) {
		edge = len(prices)
	}
	recent := meanPrice(prices[len(prices)-edge:])
	early := meanPrice(prices[:edge])
	if early == 0 {
		return MarketSignal{Trend: 0, Multiplier: 1}
	}

	trend := (recent - early) / early * marketFactor
	return MarketSignal{Trend: trend, Multiplier: 1 + trend*0.1}
}

func meanPrice(ps []models.MarketPrice) float64 {
	if len(ps) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range ps {
		sum += p.Price
	}
	return sum / float64(len(ps))
}

// EconomicImpact accumulates the qualitative macro signals into one additive
// nudge. The sum is intentionally unclamped: with many records it can leave
// [-1,1], and downstream consumes it as (1 + impact). Clamping here would
// shift the model's output distribution, so the accumulation stays as-is.
func EconomicImpact(signals []models.SentimentSignal) float64 {
	impact := 0.0
	for _, s := range signals {
		switch s.Sentiment {
		case models.SentimentPositive:
			impact += 0.1
		case models.SentimentNegative:
			impact -= 0.1
		}
		switch s.GrowthForecast {
		case models.GrowthIncreasing:
			impact += 0.05
		case models.GrowthDecreasing:
			impact -= 0.05
		}
	}
	return impact
}
