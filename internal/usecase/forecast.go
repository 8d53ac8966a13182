package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/services/learning"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// How many external observations one forecast run consumes.
const (
	priceWindowLimit     = 60
	sentimentWindowLimit = 50
)

// ForecastUseCase runs one full forecast: fetch history, blend signals,
// produce points, persist prediction records for later accuracy scoring.
type ForecastUseCase struct {
	history domrepo.HistoryStore
	engine  *learning.Engine
	caster  *forecast.Forecaster
	timeout time.Duration
	l       *applogger.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewForecastUseCase(history domrepo.HistoryStore, engine *learning.Engine, caster *forecast.Forecaster) *ForecastUseCase {
	return &ForecastUseCase{
		history: history,
		engine:  engine,
		caster:  caster,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// SetLogger injects a structured logger.
func (uc *ForecastUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetClock overrides the wall clock (tests only).
func (uc *ForecastUseCase) SetClock(now func() time.Time) { uc.now = now }

type ForecastParams struct {
	Commodity string
	Horizon   int
	Lookback  int
	Persist   bool
}

// Forecast produces the multi-month forecast for one commodity. Thin or
// absent history degrades to neutral factors and low data quality; only
// invalid parameters or an unreachable collaborator fail the request.
func (uc *ForecastUseCase) Forecast(ctx context.Context, p ForecastParams) (*models.ForecastResult, error) {
	if p.Commodity == "" {
		return nil, fmt.Errorf("commodity required")
	}
	if p.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive")
	}
	lookback := domrepo.NormalizeLookback(p.Lookback)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	now := uc.now().UTC()
	since := util.MonthsBack(now, lookback)

	// The three history fetches are independent; fan them out.
	var (
		wg      sync.WaitGroup
		txns    []models.TransactionRecord
		prices  []models.MarketPrice
		signals []models.SentimentSignal
		errs    = make([]error, 3)
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		txns, errs[0] = uc.history.Transactions(ctx, p.Commodity, since)
	}()
	go func() {
		defer wg.Done()
		prices, errs[1] = uc.history.MarketPrices(ctx, p.Commodity, since, priceWindowLimit)
	}()
	go func() {
		defer wg.Done()
		signals, errs[2] = uc.history.SentimentSignals(ctx, p.Commodity, since, sentimentWindowLimit)
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetch history: %w", err)
		}
	}

	params := uc.engine.Parameters(ctx, p.Commodity)
	result := uc.caster.Run(forecast.Input{
		Aggregates: forecast.Aggregate(txns),
		Prices:     prices,
		Signals:    signals,
		Params:     params,
		Horizon:    p.Horizon,
		Now:        now,
	})
	result.CommodityID = p.Commodity

	if p.Persist {
		ids, err := uc.persistPredictions(ctx, p.Commodity, result.MonthlyForecast, now)
		if err != nil {
			return nil, err
		}
		result.PredictionIDs = ids
	}

	if uc.l != nil {
		uc.l.Info("forecast produced",
			applogger.String("commodity", p.Commodity),
			applogger.Int("horizon", p.Horizon),
			applogger.String("data_quality", result.DataQuality),
			applogger.Int("transactions", len(txns)),
		)
	}
	return &result, nil
}

func (uc *ForecastUseCase) persistPredictions(ctx context.Context, commodity string, points []models.ForecastPoint, now time.Time) ([]string, error) {
	ids := make([]string, 0, len(points))
	for i, pt := range points {
		id, err := uc.engine.RecordPrediction(ctx, models.PredictionRecord{
			CommodityID:    commodity,
			PredictedValue: pt.PredictedQuantity,
			PeriodLabel:    pt.PeriodKey,
			MonthsAhead:    i + 1,
			FactorsUsed:    learning.FactorTags(pt.Factors),
			Confidence:     pt.Confidence,
			CreatedAt:      now,
		})
		if err != nil {
			return nil, fmt.Errorf("persist prediction %s: %w", pt.PeriodKey, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
