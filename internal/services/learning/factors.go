package learning

import "DemandCast/internal/domain/models"

// Factor tags stamped onto prediction records at creation time. The learning
// pass later attributes accuracy movement to these dimensions.
const (
	TagTrendUp          = "trend_up"
	TagTrendDown        = "trend_down"
	TagTrendFlat        = "trend_flat"
	TagSeasonalPeak     = "seasonal_peak"
	TagSeasonalTrough   = "seasonal_trough"
	TagSeasonalNeutral  = "seasonal_neutral"
	TagMarketUp         = "market_up"
	TagMarketDown       = "market_down"
	TagMarketFlat       = "market_flat"
	TagEconomicPositive = "economic_positive"
	TagEconomicNegative = "economic_negative"
	TagEconomicNeutral  = "economic_neutral"
)

// FactorTags labels which model dimensions were pulling on a forecast point.
// Deterministic: the same breakdown always produces the same tags.
func FactorTags(f models.FactorBreakdown) []string {
	tags := make([]string, 0, 4)

	switch {
	case f.Trend > 1.05:
		tags = append(tags, TagTrendUp)
	case f.Trend < 0.95:
		tags = append(tags, TagTrendDown)
	default:
		tags = append(tags, TagTrendFlat)
	}

	switch {
	case f.Seasonal > 1.1:
		tags = append(tags, TagSeasonalPeak)
	case f.Seasonal < 0.9:
		tags = append(tags, TagSeasonalTrough)
	default:
		tags = append(tags, TagSeasonalNeutral)
	}

	switch {
	case f.Market > 1.02:
		tags = append(tags, TagMarketUp)
	case f.Market < 0.98:
		tags = append(tags, TagMarketDown)
	default:
		tags = append(tags, TagMarketFlat)
	}

	switch {
	case f.Economic > 0.05:
		tags = append(tags, TagEconomicPositive)
	case f.Economic < -0.05:
		tags = append(tags, TagEconomicNegative)
	default:
		tags = append(tags, TagEconomicNeutral)
	}

	return tags
}
