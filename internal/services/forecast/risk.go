package forecast

import "math"

// Risk tags. A situation can carry several at once; the normal tag stands
// alone when nothing fires.
const (
	RiskHighTrendVolatility    = "high_trend_volatility"
	RiskHighDemandVariability  = "high_demand_variability"
	RiskMarketPriceInstability = "market_price_instability"
	RiskNegativeEconomic       = "negative_economic_indicators"
	RiskNormalConditions       = "normal_market_conditions"
)

// AssessRisk classifies the blended signal set into qualitative risk tags.
// Rules are independent and additive.
func AssessRisk(trendCoeff, seasonalVolatility, marketTrend, economicImpact float64) []string {
	var tags []string
	if math.Abs(trendCoeff) > 0.1 {
		tags = append(tags, RiskHighTrendVolatility)
	}
	if seasonalVolatility > 0.3 {
		tags = append(tags, RiskHighDemandVariability)
	}
	if math.Abs(marketTrend) > 0.2 {
		tags = append(tags, RiskMarketPriceInstability)
	}
	if economicImpact < -0.1 {
		tags = append(tags, RiskNegativeEconomic)
	}
	if len(tags) == 0 {
		tags = append(tags, RiskNormalConditions)
	}
	return tags
}
