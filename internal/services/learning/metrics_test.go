package learning

import (
	"testing"

	"DemandCast/internal/domain/models"
)

func resolvedRec(id string, monthsAhead int, accuracy float64, tags ...string) models.PredictionRecord {
	return models.PredictionRecord{
		ID:          id,
		CommodityID: "wheat",
		MonthsAhead: monthsAhead,
		FactorsUsed: tags,
		Resolved:    true,
		AccuracyPct: accuracy,
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics("wheat", nil)
	if m.SampleCount != 0 {
		t.Fatalf("expected zero samples, got %d", m.SampleCount)
	}
	if len(m.RecommendationAdjustments) != 1 || m.RecommendationAdjustments[0] != "collect_more_outcomes" {
		t.Fatalf("unexpected adjustments %v", m.RecommendationAdjustments)
	}
}

func TestComputeMetricsIgnoresUnresolved(t *testing.T) {
	recs := []models.PredictionRecord{
		resolvedRec("a", 1, 90),
		{ID: "b", CommodityID: "wheat", MonthsAhead: 1},
	}
	m := ComputeMetrics("wheat", recs)
	if m.SampleCount != 1 {
		t.Fatalf("unresolved record counted: %d", m.SampleCount)
	}
	if m.OverallAccuracy != 90 {
		t.Fatalf("unexpected accuracy %v", m.OverallAccuracy)
	}
}

func TestComputeMetricsTimeframeBuckets(t *testing.T) {
	recs := []models.PredictionRecord{
		resolvedRec("a", 1, 80),
		resolvedRec("b", 1, 100),
		resolvedRec("c", 3, 60),
	}
	m := ComputeMetrics("wheat", recs)
	if m.AccuracyByTimeframe["1m"] != 90 {
		t.Fatalf("1m bucket = %v, want 90", m.AccuracyByTimeframe["1m"])
	}
	if m.AccuracyByTimeframe["3m"] != 60 {
		t.Fatalf("3m bucket = %v, want 60", m.AccuracyByTimeframe["3m"])
	}
	if m.OverallAccuracy != 80 {
		t.Fatalf("overall = %v, want 80", m.OverallAccuracy)
	}
}

func TestComputeMetricsQuartileFactorSplit(t *testing.T) {
	recs := []models.PredictionRecord{
		resolvedRec("a", 1, 95, TagTrendUp),
		resolvedRec("b", 1, 90, TagTrendUp),
		resolvedRec("c", 1, 80, TagSeasonalNeutral),
		resolvedRec("d", 1, 75, TagSeasonalNeutral),
		resolvedRec("e", 1, 70, TagSeasonalNeutral),
		resolvedRec("f", 1, 65, TagSeasonalNeutral),
		resolvedRec("g", 1, 40, TagMarketDown),
		resolvedRec("h", 1, 30, TagMarketDown),
	}
	m := ComputeMetrics("wheat", recs)
	if len(m.ImprovingFactors) != 1 || m.ImprovingFactors[0] != TagTrendUp {
		t.Fatalf("improving = %v, want [%s]", m.ImprovingFactors, TagTrendUp)
	}
	if len(m.DecliningFactors) != 1 || m.DecliningFactors[0] != TagMarketDown {
		t.Fatalf("declining = %v, want [%s]", m.DecliningFactors, TagMarketDown)
	}
	if !hasAdjustment(m.RecommendationAdjustments, "reduce_weight_of_declining_factors") {
		t.Fatalf("expected declining-factor adjustment, got %v", m.RecommendationAdjustments)
	}
}

func TestComputeMetricsLowAccuracyAdjustment(t *testing.T) {
	recs := []models.PredictionRecord{
		resolvedRec("a", 1, 40),
		resolvedRec("b", 1, 50),
	}
	m := ComputeMetrics("wheat", recs)
	if !hasAdjustment(m.RecommendationAdjustments, "review_model_parameters") {
		t.Fatalf("expected parameter review, got %v", m.RecommendationAdjustments)
	}
	if !hasAdjustment(m.RecommendationAdjustments, "collect_more_outcomes") {
		t.Fatalf("small sample should ask for more outcomes, got %v", m.RecommendationAdjustments)
	}
}

func hasAdjustment(adjs []string, want string) bool {
	for _, a := range adjs {
		if a == want {
			return true
		}
	}
	return false
}
