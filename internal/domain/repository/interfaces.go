package repository

import (
	"context"
	"time"

	"DemandCast/internal/domain/models"
)

// MarketStream is a live price feed for a set of commodities.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher routes price ticks through the message bus.
type Publisher interface {
	Publish(ctx context.Context, t *models.PriceTick) error
	PublishBatch(ctx context.Context, ticks []*models.PriceTick) error
	Close() error
}

// TickStorage persists raw price ticks.
type TickStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, t *models.PriceTick) error
	StoreBatch(ctx context.Context, ticks []*models.PriceTick) error
	Health(ctx context.Context) error
	Close() error
}

// HistoryStore is the read-only view of historical data the engine forecasts
// from. Implementations must not mutate anything.
type HistoryStore interface {
	Transactions(ctx context.Context, commodityID string, since time.Time) ([]models.TransactionRecord, error)
	MarketPrices(ctx context.Context, commodityID string, since time.Time, limit int) ([]models.MarketPrice, error)
	SentimentSignals(ctx context.Context, commodityID string, since time.Time, limit int) ([]models.SentimentSignal, error)
}

// SignalSink accepts externally sourced macro signals for storage.
type SignalSink interface {
	StoreSentiment(ctx context.Context, commodityID string, s models.SentimentSignal) error
}

// OutcomeStore keeps prediction records and their eventual outcomes.
// Records are append-then-resolve: Resolve attaches the actual value and
// accuracy exactly once and never touches the predicted value.
type OutcomeStore interface {
	Append(ctx context.Context, rec models.PredictionRecord) (string, error)
	Find(ctx context.Context, id string) (*models.PredictionRecord, error)
	Resolve(ctx context.Context, id string, actualValue float64) (float64, error)
	QueryResolved(ctx context.Context, commodityID string, limit int) ([]models.PredictionRecord, error)
}

// ParamsStore persists per-commodity model parameters. Put replaces the whole
// record atomically and fails with ErrConflict when another writer got there
// first; readers never block on writers.
type ParamsStore interface {
	Get(ctx context.Context, commodityID string) (models.StoredParameters, error)
	Put(ctx context.Context, commodityID string, p models.StoredParameters) error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordMessageSent(backend, commodity string)
	RecordError(kind string)
	RecordLastPrice(commodity string, price float64)
	RecordLatency(op string, seconds float64)
}
