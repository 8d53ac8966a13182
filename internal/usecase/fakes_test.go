package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/learning"
)

type fakeHistoryStore struct {
	mu      sync.Mutex
	txns    []models.TransactionRecord
	prices  []models.MarketPrice
	signals []models.SentimentSignal
	err     error

	lastSince time.Time
}

func (f *fakeHistoryStore) Transactions(_ context.Context, _ string, since time.Time) ([]models.TransactionRecord, error) {
	f.mu.Lock()
	f.lastSince = since
	f.mu.Unlock()
	return f.txns, f.err
}

func (f *fakeHistoryStore) MarketPrices(context.Context, string, time.Time, int) ([]models.MarketPrice, error) {
	return f.prices, f.err
}

func (f *fakeHistoryStore) SentimentSignals(context.Context, string, time.Time, int) ([]models.SentimentSignal, error) {
	return f.signals, f.err
}

type fakeOutcomeStore struct {
	mu   sync.Mutex
	recs map[string]models.PredictionRecord
	seq  int
}

func newFakeOutcomeStore() *fakeOutcomeStore {
	return &fakeOutcomeStore{recs: map[string]models.PredictionRecord{}}
}

func (f *fakeOutcomeStore) Append(_ context.Context, rec models.PredictionRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == "" {
		f.seq++
		rec.ID = fmt.Sprintf("p%d", f.seq)
	}
	f.recs[rec.ID] = rec
	return rec.ID, nil
}

func (f *fakeOutcomeStore) Find(_ context.Context, id string) (*models.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeOutcomeStore) Resolve(_ context.Context, id string, actualValue float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return 0, domrepo.ErrNotFound
	}
	if rec.Resolved {
		return rec.AccuracyPct, nil
	}
	rec.Resolved = true
	rec.ActualValue = actualValue
	rec.AccuracyPct = learning.Accuracy(rec.PredictedValue, actualValue)
	rec.OutcomeDate = time.Now().UTC()
	f.recs[id] = rec
	return rec.AccuracyPct, nil
}

func (f *fakeOutcomeStore) QueryResolved(_ context.Context, commodityID string, _ int) ([]models.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PredictionRecord
	for _, rec := range f.recs {
		if rec.Resolved && rec.CommodityID == commodityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeParamsStore can be primed to reject a number of Puts with ErrConflict
// before accepting one.
type fakeParamsStore struct {
	mu            sync.Mutex
	stored        map[string]models.StoredParameters
	conflictsLeft int
	putCalls      int
}

func newFakeParamsStore() *fakeParamsStore {
	return &fakeParamsStore{stored: map[string]models.StoredParameters{}}
}

func (f *fakeParamsStore) Get(_ context.Context, commodityID string) (models.StoredParameters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.stored[commodityID]
	if !ok {
		return models.StoredParameters{}, domrepo.ErrNotFound
	}
	return p, nil
}

func (f *fakeParamsStore) Put(_ context.Context, commodityID string, p models.StoredParameters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return domrepo.ErrConflict
	}
	f.stored[commodityID] = p
	return nil
}
