package usecase

import (
	"context"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

func TestMonthlyAggregatesSortedAndGraded(t *testing.T) {
	history := &fakeHistoryStore{
		txns: []models.TransactionRecord{
			{Timestamp: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Quantity: 10, UnitPrice: 2},
			{Timestamp: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Quantity: 20, UnitPrice: 2},
			{Timestamp: time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), Quantity: 10, UnitPrice: 2},
		},
	}
	uc := NewHistoryUseCase(history)
	uc.SetClock(fixedNow)

	view, err := uc.MonthlyAggregates(context.Background(), "wheat", 12)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if view.LookbackMonths != 12 {
		t.Fatalf("lookback = %d, want 12", view.LookbackMonths)
	}
	if len(view.Periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(view.Periods))
	}
	if view.Periods[0].PeriodKey != "2024-03" || view.Periods[1].PeriodKey != "2024-05" {
		t.Fatalf("periods out of order: %+v", view.Periods)
	}
	if view.Periods[0].TotalQuantity != 30 {
		t.Fatalf("march quantity = %v, want 30", view.Periods[0].TotalQuantity)
	}
	if view.HistoricalAverage != 20 {
		t.Fatalf("average = %v, want 20", view.HistoricalAverage)
	}
	if view.DataQuality != models.DataQualityLow {
		t.Fatalf("2 periods should grade low, got %s", view.DataQuality)
	}

	wantSince := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	if !history.lastSince.Equal(wantSince) {
		t.Fatalf("since = %v, want %v", history.lastSince, wantSince)
	}
}

func TestMonthlyAggregatesNormalizesLookback(t *testing.T) {
	history := &fakeHistoryStore{}
	uc := NewHistoryUseCase(history)
	uc.SetClock(fixedNow)

	view, err := uc.MonthlyAggregates(context.Background(), "wheat", 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if view.LookbackMonths != 24 {
		t.Fatalf("zero lookback should default to 24, got %d", view.LookbackMonths)
	}

	if _, err := uc.MonthlyAggregates(context.Background(), "", 12); err == nil {
		t.Fatalf("expected error for missing commodity")
	}
}
