package learning

import (
	"testing"

	"DemandCast/internal/domain/models"
)

func TestFactorTagsActiveDimensions(t *testing.T) {
	got := FactorTags(models.FactorBreakdown{
		Trend:    1.2,
		Seasonal: 0.8,
		Market:   1.0,
		Economic: -0.1,
	})
	want := []string{TagTrendUp, TagSeasonalTrough, TagMarketFlat, TagEconomicNegative}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFactorTagsNeutral(t *testing.T) {
	got := FactorTags(models.FactorBreakdown{Trend: 1, Seasonal: 1, Market: 1, Economic: 0})
	want := []string{TagTrendFlat, TagSeasonalNeutral, TagMarketFlat, TagEconomicNeutral}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFactorTagsDeterministic(t *testing.T) {
	f := models.FactorBreakdown{Trend: 0.9, Seasonal: 1.15, Market: 1.05, Economic: 0.2}
	a := FactorTags(f)
	b := FactorTags(f)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tags not stable: %v vs %v", a, b)
		}
	}
}
