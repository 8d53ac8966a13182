package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/services/learning"
	"DemandCast/internal/usecase"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newEchoTestHandler(t *testing.T, txns []models.TransactionRecord) (*ForecastEchoHandler, *memOutcomeStore) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	history := &memHistoryStore{txns: txns}
	outcomes := newMemOutcomeStore()
	engine := learning.NewEngine(outcomes, &memParamsStore{stored: map[string]models.StoredParameters{}})
	caster := forecast.NewForecaster(forecast.NewSeededSource(1))

	fc := usecase.NewForecastUseCase(history, engine, caster)
	fb := usecase.NewFeedbackUseCase(engine, outcomes)
	lm := usecase.NewLearningMetricsUseCase(engine)
	hs := usecase.NewHistoryUseCase(history)

	return NewForecastEchoHandler(log, fc, fb, lm, hs), outcomes
}

func echoForecast(t *testing.T, h *ForecastEchoHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h.Forecast(e.NewContext(req, rec)); err != nil {
		t.Fatalf("forecast handler: %v", err)
	}
	return rec
}

func storedPredictions(m *memOutcomeStore) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

func TestEchoForecastPersistFalseMintsNoRecords(t *testing.T) {
	h, outcomes := newEchoTestHandler(t, yearOfTxns())

	rec := echoForecast(t, h, "/api/forecast?commodity=wheat&horizon=3&persist=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if n := storedPredictions(outcomes); n != 0 {
		t.Fatalf("persist=false stored %d prediction records, want 0", n)
	}
}

func TestEchoForecastPersistsByDefault(t *testing.T) {
	h, outcomes := newEchoTestHandler(t, yearOfTxns())

	rec := echoForecast(t, h, "/api/forecast?commodity=wheat&horizon=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if n := storedPredictions(outcomes); n != 3 {
		t.Fatalf("default run stored %d prediction records, want 3", n)
	}
}
