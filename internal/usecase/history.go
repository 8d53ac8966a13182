package usecase

import (
	"context"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/forecast"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// HistoryUseCase serves the aggregated monthly view of a commodity's
// transaction history, the same periods the forecaster consumes.
type HistoryUseCase struct {
	history domrepo.HistoryStore
	timeout time.Duration
	l       *applogger.Logger
	now     func() time.Time
}

func NewHistoryUseCase(history domrepo.HistoryStore) *HistoryUseCase {
	return &HistoryUseCase{
		history: history,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// SetLogger injects a structured logger.
func (uc *HistoryUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetClock overrides the wall clock (tests only).
func (uc *HistoryUseCase) SetClock(now func() time.Time) { uc.now = now }

type HistoryView struct {
	CommodityID       string                   `json:"commodity_id"`
	LookbackMonths    int                      `json:"lookback_months"`
	Periods           []models.PeriodAggregate `json:"periods"`
	HistoricalAverage float64                  `json:"historical_average"`
	DataQuality       string                   `json:"data_quality"`
}

// MonthlyAggregates returns chronological per-month aggregates over the
// lookback window. Months with no transactions are absent, not zero-filled.
func (uc *HistoryUseCase) MonthlyAggregates(ctx context.Context, commodity string, lookback int) (*HistoryView, error) {
	if commodity == "" {
		return nil, fmt.Errorf("commodity required")
	}
	lookback = domrepo.NormalizeLookback(lookback)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	since := util.MonthsBack(uc.now().UTC(), lookback)
	txns, err := uc.history.Transactions(ctx, commodity, since)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	aggs := forecast.Aggregate(txns)
	keys := forecast.SortedKeys(aggs)
	periods := make([]models.PeriodAggregate, 0, len(keys))
	for _, k := range keys {
		periods = append(periods, aggs[k])
	}

	return &HistoryView{
		CommodityID:       commodity,
		LookbackMonths:    lookback,
		Periods:           periods,
		HistoricalAverage: forecast.HistoricalAverage(aggs),
		DataQuality:       forecast.DataQuality(len(aggs)),
	}, nil
}
