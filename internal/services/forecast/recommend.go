package forecast

import "DemandCast/internal/domain/models"

// Action tags a forecast can recommend.
const (
	ActionIncreaseCapacity    = "increase_inventory_capacity"
	ActionSecureSuppliers     = "secure_additional_suppliers"
	ActionOptimizeInventory   = "optimize_inventory_levels"
	ActionExploreMarkets      = "explore_new_markets"
	ActionFlexibleContracts   = "implement_flexible_contracts"
	ActionSeasonalPeak        = "prepare_for_seasonal_peak"
	ActionImproveData         = "improve_data_collection"
	ActionMonitorPredictions  = "monitor_predictions_closely"
	ActionMaintainStrategy    = "maintain_current_strategy"
)

// Recommend maps the forecast state to qualitative action tags. Pure mapping;
// an empty result degenerates to the maintain-strategy default.
func Recommend(trendFactor float64, riskTags []string, seasonalFactor float64, dataQuality string, confidence float64) []string {
	var actions []string

	switch {
	case trendFactor > 1.1:
		actions = append(actions, ActionIncreaseCapacity, ActionSecureSuppliers)
	case trendFactor < 0.9:
		actions = append(actions, ActionOptimizeInventory, ActionExploreMarkets)
	}

	for _, tag := range riskTags {
		if tag == RiskHighDemandVariability {
			actions = append(actions, ActionFlexibleContracts)
			break
		}
	}

	if seasonalFactor > 1.1 {
		actions = append(actions, ActionSeasonalPeak)
	}
	if dataQuality == models.DataQualityLow {
		actions = append(actions, ActionImproveData)
	}
	if confidence < 0.7 {
		actions = append(actions, ActionMonitorPredictions)
	}

	if len(actions) == 0 {
		actions = append(actions, ActionMaintainStrategy)
	}
	return actions
}
