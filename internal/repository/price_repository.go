package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/domain/repository"
	pkgkafka "DemandCast/pkg/kafka"
)

// ClickHouseTickStorage implements TickStorage for ClickHouse.
type ClickHouseTickStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseTickStorage creates ClickHouse tick storage.
func NewClickHouseTickStorage(db *sql.DB, table string) repository.TickStorage {
	return &ClickHouseTickStorage{db: db, table: table}
}

func (s *ClickHouseTickStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseTickStorage) Store(ctx context.Context, t *models.PriceTick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, commodity, price, source, event_id) VALUES (?, ?, ?, ?, ?)", s.table)
	// event_id derived from commodity+timestamp gives cheap dedup downstream
	eventID := fmt.Sprintf("%s-%d", t.CommodityID, t.Timestamp)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(t.Timestamp, 0),
		t.CommodityID,
		t.Price,
		"pricefeed",
		eventID,
	)
	return err
}

func (s *ClickHouseTickStorage) StoreBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, t := range ticks[start:end] {
			if t == nil || t.CommodityID == "" || t.Timestamp == 0 {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", t.CommodityID, t.Timestamp)
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(t.Timestamp, 0),
				t.CommodityID,
				t.Price,
				"pricefeed",
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, commodity, price, source, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseTickStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTickStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaTickPublisher implements Publisher for Kafka.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates Kafka publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, t *models.PriceTick) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.CommodityID), map[string]interface{}{
		"commodity": t.CommodityID,
		"t":         t.Timestamp,
		"p":         t.Price,
	})
}

func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{
			Key: []byte(t.CommodityID),
			Value: map[string]interface{}{
				"commodity": t.CommodityID,
				"t":         t.Timestamp,
				"p":         t.Price,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
