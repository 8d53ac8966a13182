package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	icache "DemandCast/internal/service/cache"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/services/learning"
	"DemandCast/internal/usecase"
)

type memHistoryStore struct {
	txns []models.TransactionRecord
}

func (m *memHistoryStore) Transactions(context.Context, string, time.Time) ([]models.TransactionRecord, error) {
	return m.txns, nil
}

func (m *memHistoryStore) MarketPrices(context.Context, string, time.Time, int) ([]models.MarketPrice, error) {
	return nil, nil
}

func (m *memHistoryStore) SentimentSignals(context.Context, string, time.Time, int) ([]models.SentimentSignal, error) {
	return nil, nil
}

type memOutcomeStore struct {
	mu   sync.Mutex
	recs map[string]models.PredictionRecord
	seq  int
}

func newMemOutcomeStore() *memOutcomeStore {
	return &memOutcomeStore{recs: map[string]models.PredictionRecord{}}
}

func (m *memOutcomeStore) Append(_ context.Context, rec models.PredictionRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		m.seq++
		rec.ID = fmt.Sprintf("p%d", m.seq)
	}
	m.recs[rec.ID] = rec
	return rec.ID, nil
}

func (m *memOutcomeStore) Find(_ context.Context, id string) (*models.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return &rec, nil
}

func (m *memOutcomeStore) Resolve(_ context.Context, id string, actualValue float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return 0, domrepo.ErrNotFound
	}
	if rec.Resolved {
		return rec.AccuracyPct, nil
	}
	rec.Resolved = true
	rec.ActualValue = actualValue
	rec.AccuracyPct = learning.Accuracy(rec.PredictedValue, actualValue)
	m.recs[id] = rec
	return rec.AccuracyPct, nil
}

func (m *memOutcomeStore) QueryResolved(_ context.Context, commodityID string, _ int) ([]models.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PredictionRecord
	for _, rec := range m.recs {
		if rec.Resolved && rec.CommodityID == commodityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memParamsStore struct {
	mu     sync.Mutex
	stored map[string]models.StoredParameters
}

func (m *memParamsStore) Get(_ context.Context, commodityID string) (models.StoredParameters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.stored[commodityID]
	if !ok {
		return models.StoredParameters{}, domrepo.ErrNotFound
	}
	return p, nil
}

func (m *memParamsStore) Put(_ context.Context, commodityID string, p models.StoredParameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[commodityID] = p
	return nil
}

func newTestHandler(txns []models.TransactionRecord) (*ForecastHandler, *memOutcomeStore) {
	history := &memHistoryStore{txns: txns}
	outcomes := newMemOutcomeStore()
	engine := learning.NewEngine(outcomes, &memParamsStore{stored: map[string]models.StoredParameters{}})
	caster := forecast.NewForecaster(forecast.NewSeededSource(1))

	fc := usecase.NewForecastUseCase(history, engine, caster)
	fb := usecase.NewFeedbackUseCase(engine, outcomes)
	lm := usecase.NewLearningMetricsUseCase(engine)
	hs := usecase.NewHistoryUseCase(history)

	return NewForecastHandler(fc, fb, lm, hs), outcomes
}

func yearOfTxns() []models.TransactionRecord {
	start := time.Now().UTC().AddDate(0, -13, 0)
	txns := make([]models.TransactionRecord, 0, 12)
	for i := 0; i < 12; i++ {
		txns = append(txns, models.TransactionRecord{
			Timestamp:   start.AddDate(0, i, 0),
			CommodityID: "wheat",
			Quantity:    100,
			UnitPrice:   6,
		})
	}
	return txns
}

func TestForecastEndpoint(t *testing.T) {
	h, outcomes := newTestHandler(yearOfTxns())

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?commodity=wheat&horizon=3", nil)
	rec := httptest.NewRecorder()
	h.Forecast().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res models.ForecastResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CommodityID != "wheat" || len(res.MonthlyForecast) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	// Default persist mints prediction records.
	if len(res.PredictionIDs) != 3 {
		t.Fatalf("expected 3 prediction ids, got %v", res.PredictionIDs)
	}
	for _, id := range res.PredictionIDs {
		if _, err := outcomes.Find(context.Background(), id); err != nil {
			t.Fatalf("prediction %s not stored: %v", id, err)
		}
	}
}

func TestForecastEndpointRequiresCommodity(t *testing.T) {
	h, _ := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	rec := httptest.NewRecorder()
	h.Forecast().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestForecastEndpointCachesNonPersisted(t *testing.T) {
	h, _ := newTestHandler(yearOfTxns())
	h.SetCache(icache.NewTTLCache())

	first := httptest.NewRecorder()
	h.Forecast().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/forecast?commodity=wheat&horizon=3&persist=false", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first call status %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.Forecast().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/forecast?commodity=wheat&horizon=3&persist=false", nil))
	if second.Code != http.StatusOK {
		t.Fatalf("second call status %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached response differs")
	}
}

func TestForecastEndpointRateLimits(t *testing.T) {
	h, _ := newTestHandler(yearOfTxns())

	var limited bool
	for i := 0; i < 8; i++ {
		rec := httptest.NewRecorder()
		h.Forecast().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/forecast?commodity=wheat", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("burst of requests never hit the rate limit")
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	h, outcomes := newTestHandler(nil)
	id, err := outcomes.Append(context.Background(), models.PredictionRecord{
		CommodityID:    "wheat",
		PredictedValue: 150,
		MonthsAhead:    1,
		FactorsUsed:    []string{learning.TagTrendUp},
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := strings.NewReader(`{"prediction_id":"` + id + `","actual_value":100}`)
	rec := httptest.NewRecorder()
	h.Feedback().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedback", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res usecase.FeedbackResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.AccuracyPct != 50 {
		t.Fatalf("accuracy = %v, want 50", res.AccuracyPct)
	}
}

func TestFeedbackEndpointErrors(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := httptest.NewRecorder()
	h.Feedback().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feedback", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Feedback().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"prediction_id":"missing","actual_value":10}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown prediction status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Feedback().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"actual_value":10}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id status %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	h, _ := newTestHandler(yearOfTxns())

	rec := httptest.NewRecorder()
	h.History().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?commodity=wheat&lookback=12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var view usecase.HistoryView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.CommodityID != "wheat" || len(view.Periods) == 0 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestLearningEndpoint(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := httptest.NewRecorder()
	h.Learning().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/learning?commodity=wheat", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var report usecase.LearningReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Params != models.DefaultParameters() {
		t.Fatalf("expected default parameters, got %+v", report.Params)
	}
}
