package forecast

import "testing"

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestAssessRiskNormalConditions(t *testing.T) {
	tags := AssessRisk(0.05, 0.2, 0.1, 0)
	if len(tags) != 1 || tags[0] != RiskNormalConditions {
		t.Fatalf("expected only normal conditions, got %v", tags)
	}
}

func TestAssessRiskTagsAreAdditive(t *testing.T) {
	tags := AssessRisk(0.3, 0.5, -0.4, -0.2)
	for _, want := range []string{
		RiskHighTrendVolatility,
		RiskHighDemandVariability,
		RiskMarketPriceInstability,
		RiskNegativeEconomic,
	} {
		if !hasTag(tags, want) {
			t.Fatalf("missing %s in %v", want, tags)
		}
	}
	if hasTag(tags, RiskNormalConditions) {
		t.Fatalf("normal tag must not coexist with risk tags: %v", tags)
	}
}

func TestAssessRiskNegativeTrendCounts(t *testing.T) {
	tags := AssessRisk(-0.15, 0, 0, 0)
	if !hasTag(tags, RiskHighTrendVolatility) {
		t.Fatalf("falling trend beyond threshold should flag volatility, got %v", tags)
	}
}
