package usecase

import (
	"context"
	"encoding/json"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkgkafka "DemandCast/pkg/kafka"
)

// KafkaTicksHandler consumes price ticks from Kafka and writes them to tick
// storage. It sits on the consuming side when the collector's backend is
// "kafka".
type KafkaTicksHandler struct {
	topic   string
	storage domrepo.TickStorage
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, storage domrepo.TickStorage, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {commodity, t, p}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Commodity string  `json:"commodity"`
		T         int64   `json:"t"`
		P         float64 `json:"p"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.PriceTick{
		CommodityID: m.Commodity,
		Timestamp:   m.T,
		Price:       m.P,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Commodity)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
