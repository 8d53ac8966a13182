package usecase

import (
	"context"
	"encoding/json"
	"time"

	domrepo "DemandCast/internal/domain/repository"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
)

// KafkaOutcomesHandler consumes outcome events from Kafka and feeds them to
// the feedback use case, so ERP exports and batch jobs can close the loop
// without going through the HTTP API.
type KafkaOutcomesHandler struct {
	topic    string
	feedback *FeedbackUseCase
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewKafkaOutcomesHandler(topic string, feedback *FeedbackUseCase, metrics domrepo.Metrics) *KafkaOutcomesHandler {
	return &KafkaOutcomesHandler{topic: topic, feedback: feedback, metrics: metrics}
}

// SetLogger injects a structured logger.
func (h *KafkaOutcomesHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *KafkaOutcomesHandler) Topic() string { return h.topic }

// incoming message schema: {prediction_id, actual_value}
func (h *KafkaOutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		PredictionID string  `json:"prediction_id"`
		ActualValue  float64 `json:"actual_value"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	res, err := h.feedback.Submit(ctx, m.PredictionID, m.ActualValue)
	h.metrics.RecordLatency("outcome_resolve_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_resolve")
		return err
	}

	if h.l != nil {
		h.l.Debug("outcome event applied",
			applogger.String("prediction_id", res.PredictionID),
			applogger.Any("accuracy", res.AccuracyPct),
		)
	}
	h.metrics.RecordMessageSent("learning", m.PredictionID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaOutcomesHandler)(nil)
