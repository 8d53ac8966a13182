package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	applogger "DemandCast/pkg/logger"

	"github.com/google/uuid"
)

// Engine owns per-commodity model parameters and the prediction-outcome
// history they are tuned from. It is the only stateful part of the
// forecasting core.
type Engine struct {
	outcomes domrepo.OutcomeStore
	params   domrepo.ParamsStore
	l        *applogger.Logger
}

func NewEngine(outcomes domrepo.OutcomeStore, params domrepo.ParamsStore) *Engine {
	return &Engine{outcomes: outcomes, params: params}
}

// SetLogger injects a structured logger.
func (e *Engine) SetLogger(l *applogger.Logger) { e.l = l }

// Parameters returns the current model parameters for a commodity, falling
// back to defaults for a commodity never tuned before. This read never blocks
// on a concurrent learning update; a stale-by-one value is acceptable.
func (e *Engine) Parameters(ctx context.Context, commodityID string) models.ModelParameters {
	stored, err := e.params.Get(ctx, commodityID)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNotFound) && e.l != nil {
			e.l.Warn("params read failed, using defaults",
				applogger.String("commodity", commodityID),
				applogger.Error(err),
			)
		}
		return models.DefaultParameters()
	}
	return stored.Params.Clamp()
}

// RecordPrediction appends an unresolved prediction record, assigning an ID
// when the caller did not.
func (e *Engine) RecordPrediction(ctx context.Context, rec models.PredictionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	id, err := e.outcomes.Append(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("append prediction: %w", err)
	}
	return id, nil
}

// ResolvePrediction attaches the observed actual value to a prediction and
// returns the computed accuracy percentage.
func (e *Engine) ResolvePrediction(ctx context.Context, id string, actualValue float64) (float64, error) {
	acc, err := e.outcomes.Resolve(ctx, id, actualValue)
	if err != nil {
		return 0, fmt.Errorf("resolve prediction: %w", err)
	}
	if e.l != nil {
		e.l.Debug("prediction resolved",
			applogger.String("id", id),
			applogger.Any("accuracy", acc),
		)
	}
	return acc, nil
}

// Metrics derives learning metrics from the commodity's resolved records.
func (e *Engine) Metrics(ctx context.Context, commodityID string, limit int) (models.LearningMetrics, error) {
	recs, err := e.outcomes.QueryResolved(ctx, commodityID, limit)
	if err != nil {
		return models.LearningMetrics{}, fmt.Errorf("query resolved: %w", err)
	}
	return ComputeMetrics(commodityID, recs), nil
}

// ImproveOnce runs a single learning pass: read parameters, derive nudges
// from the outcome history, write back atomically. A failed optimistic check
// surfaces as domrepo.ErrConflict for the caller to retry.
func (e *Engine) ImproveOnce(ctx context.Context, commodityID string, limit int) (models.ModelParameters, error) {
	stored, err := e.params.Get(ctx, commodityID)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNotFound) {
			return models.ModelParameters{}, fmt.Errorf("read params: %w", err)
		}
		stored = models.StoredParameters{Params: models.DefaultParameters()}
	}

	recs, err := e.outcomes.QueryResolved(ctx, commodityID, limit)
	if err != nil {
		return models.ModelParameters{}, fmt.Errorf("query resolved: %w", err)
	}

	updated, changed := Improve(stored, recs)
	if !changed {
		return stored.Params, nil
	}

	updated.UpdatedAt = time.Now().UTC()
	if err := e.params.Put(ctx, commodityID, updated); err != nil {
		return models.ModelParameters{}, err
	}
	if e.l != nil {
		e.l.Info("model parameters adjusted",
			applogger.String("commodity", commodityID),
			applogger.Any("params", updated.Params),
			applogger.Int("samples", updated.SampleWatermark),
		)
	}
	return updated.Params, nil
}
