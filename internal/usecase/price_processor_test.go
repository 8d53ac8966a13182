package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"DemandCast/internal/domain/models"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.PriceTick
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, t *models.PriceTick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, t)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, ticks []*models.PriceTick) error {
	for _, t := range ticks {
		if err := p.Publish(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestProcessRoutesToKafkaBackend(t *testing.T) {
	pub := &recordingPublisher{}
	store := &recordingTickStorage{}
	p := NewPriceProcessor(pub, store, newRecordingMetrics(), "kafka")

	tick := &models.PriceTick{CommodityID: "wheat", Timestamp: 1700000000, Price: 6.5}
	if err := p.Process(context.Background(), tick); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(pub.published) != 1 || len(store.ticks) != 0 {
		t.Fatalf("tick routed wrong: kafka=%d clickhouse=%d", len(pub.published), len(store.ticks))
	}
}

func TestProcessRoutesToClickHouseBackend(t *testing.T) {
	pub := &recordingPublisher{}
	store := &recordingTickStorage{}
	p := NewPriceProcessor(pub, store, newRecordingMetrics(), "clickhouse")

	tick := &models.PriceTick{CommodityID: "wheat", Timestamp: 1700000000, Price: 6.5}
	if err := p.Process(context.Background(), tick); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(store.ticks) != 1 || len(pub.published) != 0 {
		t.Fatalf("tick routed wrong: kafka=%d clickhouse=%d", len(pub.published), len(store.ticks))
	}
}

func TestProcessRejectsUnknownBackendAndNilTick(t *testing.T) {
	p := NewPriceProcessor(&recordingPublisher{}, &recordingTickStorage{}, newRecordingMetrics(), "carrier-pigeon")
	if err := p.Process(context.Background(), &models.PriceTick{CommodityID: "wheat", Timestamp: 1, Price: 1}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected nil tick error")
	}
}

func TestProcessBatch(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPriceProcessor(pub, &recordingTickStorage{}, newRecordingMetrics(), "kafka")

	ticks := []*models.PriceTick{
		{CommodityID: "wheat", Timestamp: 1700000000, Price: 6.5},
		{CommodityID: "corn", Timestamp: 1700000001, Price: 4.2},
	}
	if err := p.ProcessBatch(context.Background(), ticks); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d, want 2", len(pub.published))
	}
	if err := p.ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestProcessSurfacesBackendError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	metrics := newRecordingMetrics()
	p := NewPriceProcessor(pub, &recordingTickStorage{}, metrics, "kafka")

	if err := p.Process(context.Background(), &models.PriceTick{CommodityID: "wheat", Timestamp: 1, Price: 1}); err == nil {
		t.Fatalf("expected publish error")
	}
	if metrics.errors["process"] != 1 {
		t.Fatalf("error not recorded")
	}
}
