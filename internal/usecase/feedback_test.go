package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/learning"
)

func seedPrediction(t *testing.T, outcomes *fakeOutcomeStore, predicted float64) string {
	t.Helper()
	id, err := outcomes.Append(context.Background(), models.PredictionRecord{
		CommodityID:    "wheat",
		PredictedValue: predicted,
		PeriodLabel:    "2024-09",
		MonthsAhead:    1,
		FactorsUsed:    []string{learning.TagTrendUp},
		CreatedAt:      time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed prediction: %v", err)
	}
	return id
}

func TestFeedbackValidation(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	uc := NewFeedbackUseCase(learning.NewEngine(outcomes, newFakeParamsStore()), outcomes)

	if _, err := uc.Submit(context.Background(), "", 100); err == nil {
		t.Fatalf("expected error for empty prediction id")
	}
	if _, err := uc.Submit(context.Background(), "p1", -5); err == nil {
		t.Fatalf("expected error for negative actual value")
	}
}

func TestFeedbackUnknownPrediction(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	uc := NewFeedbackUseCase(learning.NewEngine(outcomes, newFakeParamsStore()), outcomes)

	_, err := uc.Submit(context.Background(), "missing", 100)
	if !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestFeedbackResolvesAndScores(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	params := newFakeParamsStore()
	uc := NewFeedbackUseCase(learning.NewEngine(outcomes, params), outcomes)
	id := seedPrediction(t, outcomes, 150)

	res, err := uc.Submit(context.Background(), id, 100)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.PredictionID != id {
		t.Fatalf("unexpected id %s", res.PredictionID)
	}
	if res.AccuracyPct != 50 {
		t.Fatalf("accuracy = %v, want 50", res.AccuracyPct)
	}

	rec, err := outcomes.Find(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !rec.Resolved || rec.ActualValue != 100 {
		t.Fatalf("record not resolved: %+v", rec)
	}

	// One new outcome advances the learning watermark for the commodity.
	stored, err := params.Get(context.Background(), "wheat")
	if err != nil {
		t.Fatalf("params after learning pass: %v", err)
	}
	if stored.SampleWatermark != 1 {
		t.Fatalf("watermark = %d, want 1", stored.SampleWatermark)
	}
}

func TestFeedbackRetriesConflictOnce(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	params := newFakeParamsStore()
	params.conflictsLeft = 1
	uc := NewFeedbackUseCase(learning.NewEngine(outcomes, params), outcomes)
	id := seedPrediction(t, outcomes, 100)

	if _, err := uc.Submit(context.Background(), id, 100); err != nil {
		t.Fatalf("single conflict should be retried: %v", err)
	}
	if params.putCalls != 2 {
		t.Fatalf("put calls = %d, want 2", params.putCalls)
	}
}

func TestFeedbackSurfacesRepeatedConflict(t *testing.T) {
	outcomes := newFakeOutcomeStore()
	params := newFakeParamsStore()
	params.conflictsLeft = 2
	uc := NewFeedbackUseCase(learning.NewEngine(outcomes, params), outcomes)
	id := seedPrediction(t, outcomes, 100)

	_, err := uc.Submit(context.Background(), id, 100)
	if !errors.Is(err, domrepo.ErrConflict) {
		t.Fatalf("expected conflict after retry, got %v", err)
	}
	if params.putCalls != 2 {
		t.Fatalf("put calls = %d, want 2", params.putCalls)
	}
}
