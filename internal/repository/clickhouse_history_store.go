package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// CHHistoryStore is the ClickHouse-backed read side of the engine: historical
// transactions, market prices, and sentiment signals. It also accepts new
// sentiment signals from the macro feed poller.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) Transactions(ctx context.Context, commodityID string, since time.Time) ([]models.TransactionRecord, error) {
	start := time.Now()
	const q = `
        SELECT ts, commodity, quantity, unit_price
        FROM demandcast.transactions
        WHERE commodity = ? AND ts >= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, commodityID, since)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse transactions query error",
				applogger.String("commodity", commodityID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.TransactionRecord, 0, 1024)
	for rows.Next() {
		var r models.TransactionRecord
		if err := rows.Scan(&r.Timestamp, &r.CommodityID, &r.Quantity, &r.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse transactions ok",
			applogger.String("commodity", commodityID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHHistoryStore) MarketPrices(ctx context.Context, commodityID string, since time.Time, limit int) ([]models.MarketPrice, error) {
	const q = `
        SELECT ts, price
        FROM demandcast.market_prices_raw
        WHERE commodity = ? AND ts >= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, commodityID, since, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse market_prices query error",
				applogger.String("commodity", commodityID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get market prices: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.MarketPrice, 0, limit)
	for rows.Next() {
		var p models.MarketPrice
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("scan market price: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC so the trend comparison windows line up chronologically
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHHistoryStore) SentimentSignals(ctx context.Context, commodityID string, since time.Time, limit int) ([]models.SentimentSignal, error) {
	const q = `
        SELECT ts, sentiment, growth_forecast
        FROM demandcast.sentiment_signals
        WHERE commodity = ? AND ts >= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, commodityID, since, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse sentiment query error",
				applogger.String("commodity", commodityID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get sentiment signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.SentimentSignal, 0, limit)
	for rows.Next() {
		var sig models.SentimentSignal
		if err := rows.Scan(&sig.Timestamp, &sig.Sentiment, &sig.GrowthForecast); err != nil {
			return nil, fmt.Errorf("scan sentiment signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// StoreSentiment appends one sentiment signal.
func (s *CHHistoryStore) StoreSentiment(ctx context.Context, commodityID string, sig models.SentimentSignal) error {
	const q = `
        INSERT INTO demandcast.sentiment_signals (ts, commodity, sentiment, growth_forecast)
        VALUES (?, ?, ?, ?)
    `
	ts := sig.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, q, ts, commodityID, sig.Sentiment, sig.GrowthForecast); err != nil {
		return fmt.Errorf("store sentiment: %w", err)
	}
	return nil
}
