package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/learning"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// CHOutcomeStore keeps prediction records in ClickHouse. Resolution uses a
// lightweight mutation; the table is append-mostly and mutations are rare
// enough (one per outcome) that this stays cheap.
type CHOutcomeStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHOutcomeStore(ch *pkgch.Client) *CHOutcomeStore {
	return &CHOutcomeStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHOutcomeStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHOutcomeStore) Append(ctx context.Context, rec models.PredictionRecord) (string, error) {
	const q = `
        INSERT INTO demandcast.predictions
            (id, commodity, predicted_value, period_label, months_ahead, factors_used, confidence, created_at, resolved, actual_value, accuracy_pct, outcome_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, toDateTime(0))
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.CommodityID,
		rec.PredictedValue,
		rec.PeriodLabel,
		rec.MonthsAhead,
		rec.FactorsUsed,
		rec.Confidence,
		rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert prediction: %w", err)
	}
	return rec.ID, nil
}

func (s *CHOutcomeStore) Find(ctx context.Context, id string) (*models.PredictionRecord, error) {
	const q = `
        SELECT id, commodity, predicted_value, period_label, months_ahead, factors_used, confidence, created_at, resolved, actual_value, accuracy_pct, outcome_date
        FROM demandcast.predictions
        WHERE id = ?
        LIMIT 1
    `
	rec, err := s.scanOne(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("find prediction: %w", err)
	}
	return rec, nil
}

// Resolve attaches the actual value and derived accuracy. A second resolve of
// the same record is a no-op returning the stored accuracy.
func (s *CHOutcomeStore) Resolve(ctx context.Context, id string, actualValue float64) (float64, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return 0, err
	}
	if rec.Resolved {
		return rec.AccuracyPct, nil
	}

	acc := learning.Accuracy(rec.PredictedValue, actualValue)
	const q = `
        ALTER TABLE demandcast.predictions
        UPDATE resolved = 1, actual_value = ?, accuracy_pct = ?, outcome_date = ?
        WHERE id = ?
    `
	if _, err := s.db.ExecContext(ctx, q, actualValue, acc, time.Now().UTC(), id); err != nil {
		return 0, fmt.Errorf("resolve prediction: %w", err)
	}
	if s.l != nil {
		s.l.Debug("prediction outcome written",
			applogger.String("id", id),
			applogger.Any("accuracy", acc),
		)
	}
	return acc, nil
}

func (s *CHOutcomeStore) QueryResolved(ctx context.Context, commodityID string, limit int) ([]models.PredictionRecord, error) {
	const q = `
        SELECT id, commodity, predicted_value, period_label, months_ahead, factors_used, confidence, created_at, resolved, actual_value, accuracy_pct, outcome_date
        FROM demandcast.predictions
        WHERE commodity = ? AND resolved = 1
        ORDER BY created_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, commodityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query resolved: %w", err)
	}
	defer rows.Close()

	out := make([]models.PredictionRecord, 0, limit)
	for rows.Next() {
		rec, err := s.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *CHOutcomeStore) scanOne(row rowScanner) (*models.PredictionRecord, error) {
	var (
		rec      models.PredictionRecord
		resolved uint8
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CommodityID,
		&rec.PredictedValue,
		&rec.PeriodLabel,
		&rec.MonthsAhead,
		&rec.FactorsUsed,
		&rec.Confidence,
		&rec.CreatedAt,
		&resolved,
		&rec.ActualValue,
		&rec.AccuracyPct,
		&rec.OutcomeDate,
	); err != nil {
		return nil, err
	}
	rec.Resolved = resolved == 1
	return &rec, nil
}
