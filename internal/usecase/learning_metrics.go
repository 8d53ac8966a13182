package usecase

import (
	"context"
	"fmt"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/learning"
	applogger "DemandCast/pkg/logger"
)

// LearningMetricsUseCase exposes the learning engine's accuracy view for one
// commodity: how predictions have scored, which factors help, and the
// parameters currently in effect.
type LearningMetricsUseCase struct {
	engine *learning.Engine
	l      *applogger.Logger
}

func NewLearningMetricsUseCase(engine *learning.Engine) *LearningMetricsUseCase {
	return &LearningMetricsUseCase{engine: engine}
}

// SetLogger injects a structured logger.
func (uc *LearningMetricsUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

type LearningReport struct {
	Metrics models.LearningMetrics `json:"metrics"`
	Params  models.ModelParameters `json:"model_parameters"`
}

func (uc *LearningMetricsUseCase) Report(ctx context.Context, commodity string, limit int) (*LearningReport, error) {
	if commodity == "" {
		return nil, fmt.Errorf("commodity required")
	}
	if limit <= 0 {
		limit = learningWindow
	}

	metrics, err := uc.engine.Metrics(ctx, commodity, limit)
	if err != nil {
		return nil, err
	}
	return &LearningReport{
		Metrics: metrics,
		Params:  uc.engine.Parameters(ctx, commodity),
	}, nil
}
