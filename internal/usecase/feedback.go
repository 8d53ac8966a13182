package usecase

import (
	"context"
	"errors"
	"fmt"

	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/learning"
	applogger "DemandCast/pkg/logger"
)

// learningWindow caps how many resolved records one learning pass reads.
const learningWindow = 200

// FeedbackUseCase closes the loop: attach an observed actual value to a
// prediction, then let the learning engine re-tune the commodity's
// parameters.
type FeedbackUseCase struct {
	engine   *learning.Engine
	outcomes domrepo.OutcomeStore
	window   int
	l        *applogger.Logger
}

func NewFeedbackUseCase(engine *learning.Engine, outcomes domrepo.OutcomeStore) *FeedbackUseCase {
	return &FeedbackUseCase{engine: engine, outcomes: outcomes, window: learningWindow}
}

// SetLogger injects a structured logger.
func (uc *FeedbackUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetLearningWindow overrides how many resolved records a learning pass reads.
func (uc *FeedbackUseCase) SetLearningWindow(n int) {
	if n > 0 {
		uc.window = n
	}
}

type FeedbackResult struct {
	PredictionID string  `json:"prediction_id"`
	AccuracyPct  float64 `json:"accuracy_percentage"`
}

// Submit resolves the prediction and runs a learning pass for its commodity.
// A conflicting concurrent parameter update is retried exactly once, then
// surfaced.
func (uc *FeedbackUseCase) Submit(ctx context.Context, predictionID string, actualValue float64) (*FeedbackResult, error) {
	if predictionID == "" {
		return nil, fmt.Errorf("prediction id required")
	}
	if actualValue < 0 {
		return nil, fmt.Errorf("actual value must be non-negative")
	}

	acc, err := uc.engine.ResolvePrediction(ctx, predictionID, actualValue)
	if err != nil {
		return nil, err
	}

	commodity, err := uc.commodityFor(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.engine.ImproveOnce(ctx, commodity, uc.window); err != nil {
		if !errors.Is(err, domrepo.ErrConflict) {
			return nil, err
		}
		if uc.l != nil {
			uc.l.Warn("learning update conflict, retrying once",
				applogger.String("commodity", commodity),
			)
		}
		if _, err := uc.engine.ImproveOnce(ctx, commodity, uc.window); err != nil {
			return nil, err
		}
	}

	return &FeedbackResult{PredictionID: predictionID, AccuracyPct: acc}, nil
}

func (uc *FeedbackUseCase) commodityFor(ctx context.Context, predictionID string) (string, error) {
	rec, err := uc.outcomes.Find(ctx, predictionID)
	if err != nil {
		return "", fmt.Errorf("find prediction: %w", err)
	}
	return rec.CommodityID, nil
}
