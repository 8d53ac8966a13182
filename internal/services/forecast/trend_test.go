package forecast

import (
	"math"
	"testing"
)

func TestFitSlopeLinearSeries(t *testing.T) {
	got := FitSlope([]float64{10, 12, 14, 16})
	if math.Abs(got-2) > 1e-9 {
		t.Fatalf("expected slope 2, got %v", got)
	}
}

func TestFitSlopeFlatAndShort(t *testing.T) {
	if got := FitSlope([]float64{7, 7, 7}); got != 0 {
		t.Fatalf("flat series should have zero slope, got %v", got)
	}
	if got := FitSlope([]float64{42}); got != 0 {
		t.Fatalf("single point should have zero slope, got %v", got)
	}
}

func TestTrendFactorClamps(t *testing.T) {
	if got := TrendFactor([]float64{1, 100}, 1.0); got != maxTrendFactor {
		t.Fatalf("steep growth should clamp to %v, got %v", maxTrendFactor, got)
	}
	if got := TrendFactor([]float64{100, 1}, 1.0); got != minTrendFactor {
		t.Fatalf("steep decline should clamp to %v, got %v", minTrendFactor, got)
	}
}

func TestTrendFactorNeutralOnFlat(t *testing.T) {
	if got := TrendFactor([]float64{50, 50, 50, 50}, 1.0); got != 1 {
		t.Fatalf("flat series should give factor 1, got %v", got)
	}
}

func TestTrendFactorSensitivityScales(t *testing.T) {
	qs := []float64{100, 102, 104, 106}
	full := TrendFactor(qs, 1.0)
	half := TrendFactor(qs, 0.5)
	if full <= 1 || half <= 1 {
		t.Fatalf("rising series should give factor above 1: full=%v half=%v", full, half)
	}
	if math.Abs((half-1)*2-(full-1)) > 1e-9 {
		t.Fatalf("sensitivity should scale the deviation: full=%v half=%v", full, half)
	}
}
