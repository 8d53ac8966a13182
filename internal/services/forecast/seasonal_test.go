package forecast

import (
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

// monthlyAggs builds consecutive monthly aggregates starting at start.
func monthlyAggs(start time.Time, quantities []float64) map[string]models.PeriodAggregate {
	aggs := make(map[string]models.PeriodAggregate, len(quantities))
	for i, q := range quantities {
		key := PeriodKey(start.AddDate(0, i, 0))
		aggs[key] = models.PeriodAggregate{PeriodKey: key, TotalQuantity: q, RecordCount: 1}
	}
	return aggs
}

func TestExtractSeasonalityNeutralBelowFullCycle(t *testing.T) {
	aggs := monthlyAggs(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{100, 110, 90, 105, 95, 100})
	got := ExtractSeasonality(aggs, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if got.Factor != 1.0 || got.Volatility != 0.1 {
		t.Fatalf("expected neutral seasonality with 6 periods, got %+v", got)
	}
}

func TestExtractSeasonalityDecemberPeak(t *testing.T) {
	// Two full years, December doubled both times.
	quantities := make([]float64, 24)
	for i := range quantities {
		quantities[i] = 100
	}
	quantities[11] = 200
	quantities[23] = 200
	aggs := monthlyAggs(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), quantities)

	dec := ExtractSeasonality(aggs, time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	if dec.Factor < 1.5 || dec.Factor > 2.0 {
		t.Fatalf("december factor = %v, want a clear peak in (1.5, 2.0)", dec.Factor)
	}

	june := ExtractSeasonality(aggs, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if june.Factor >= 1 {
		t.Fatalf("off-peak month should sit below average, got %v", june.Factor)
	}
	if dec.Volatility != june.Volatility {
		t.Fatalf("volatility is a series property, got %v vs %v", dec.Volatility, june.Volatility)
	}
}

func TestExtractSeasonalityDetrendsRisingSeries(t *testing.T) {
	// Demand climbs linearly 100 -> 300 over two years; both Decembers carry
	// an extra 20%. Without detrending the early December sits below the
	// overall mean and drags the factor under 1.
	quantities := make([]float64, 24)
	for i := range quantities {
		quantities[i] = 100 + 200*float64(i)/23
	}
	quantities[11] *= 1.2
	quantities[23] *= 1.2
	aggs := monthlyAggs(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), quantities)

	dec := ExtractSeasonality(aggs, time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	if dec.Factor <= 1 {
		t.Fatalf("december factor = %v, want > 1 despite the upward trend", dec.Factor)
	}
	if dec.Factor > 1.3 {
		t.Fatalf("december factor = %v, want roughly the 20%% bump, not the trend", dec.Factor)
	}

	june := ExtractSeasonality(aggs, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if june.Factor >= dec.Factor {
		t.Fatalf("unbumped june (%v) should sit below december (%v)", june.Factor, dec.Factor)
	}
}

func TestExtractSeasonalityFlatSeriesZeroVolatility(t *testing.T) {
	quantities := make([]float64, 12)
	for i := range quantities {
		quantities[i] = 80
	}
	aggs := monthlyAggs(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), quantities)
	got := ExtractSeasonality(aggs, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if got.Factor != 1 {
		t.Fatalf("flat series should give factor 1, got %v", got.Factor)
	}
	if got.Volatility != 0 {
		t.Fatalf("flat series should have zero volatility, got %v", got.Volatility)
	}
}
