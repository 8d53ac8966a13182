package usecase

import (
	"context"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
)

// PriceProcessor routes incoming price ticks to the configured backend,
// either straight into ClickHouse or through Kafka for downstream consumers.
type PriceProcessor struct {
	pub     domrepo.Publisher
	store   domrepo.TickStorage
	metrics domrepo.Metrics
	backend string
}

func NewPriceProcessor(pub domrepo.Publisher, store domrepo.TickStorage, metrics domrepo.Metrics, backend string) *PriceProcessor {
	return &PriceProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single tick.
func (p *PriceProcessor) Process(ctx context.Context, t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, t)
	case "clickhouse":
		err = p.store.Store(ctx, t)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process tick: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, t.CommodityID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes a batch of ticks in one backend call.
func (p *PriceProcessor) ProcessBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, ticks)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, ticks)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, t := range ticks {
		p.metrics.RecordMessageSent(p.backend, t.CommodityID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *PriceProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
