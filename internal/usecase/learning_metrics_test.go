package usecase

import (
	"context"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/learning"
)

func TestLearningReportDefaults(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	uc := NewLearningMetricsUseCase(learning.NewEngine(outcomes, newFakeParamsStore()))

	report, err := uc.Report(context.Background(), "wheat", 0)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.Metrics.SampleCount != 0 {
		t.Fatalf("expected empty sample set, got %d", report.Metrics.SampleCount)
	}
	if report.Params != models.DefaultParameters() {
		t.Fatalf("untuned commodity should report defaults: %+v", report.Params)
	}

	if _, err := uc.Report(context.Background(), "", 10); err == nil {
		t.Fatalf("expected error for missing commodity")
	}
}

func TestLearningReportAggregatesOutcomes(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	uc := NewLearningMetricsUseCase(learning.NewEngine(outcomes, newFakeParamsStore()))
	ctx := context.Background()

	created := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, predicted := range []float64{100, 120} {
		id, err := outcomes.Append(ctx, models.PredictionRecord{
			CommodityID:    "wheat",
			PredictedValue: predicted,
			MonthsAhead:    i + 1,
			FactorsUsed:    []string{learning.TagTrendUp},
			CreatedAt:      created.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if _, err := outcomes.Resolve(ctx, id, 100); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	report, err := uc.Report(ctx, "wheat", 50)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.Metrics.SampleCount != 2 {
		t.Fatalf("sample count = %d, want 2", report.Metrics.SampleCount)
	}
	if report.Metrics.OverallAccuracy != 90 {
		t.Fatalf("overall accuracy = %v, want 90", report.Metrics.OverallAccuracy)
	}
	if report.Metrics.AccuracyByTimeframe["1m"] != 100 {
		t.Fatalf("1m bucket = %v, want 100", report.Metrics.AccuracyByTimeframe["1m"])
	}
	if report.Metrics.AccuracyByTimeframe["2m"] != 80 {
		t.Fatalf("2m bucket = %v, want 80", report.Metrics.AccuracyByTimeframe["2m"])
	}
}
