package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	domrepo "DemandCast/internal/domain/repository"
	icache "DemandCast/internal/service/cache"
	"DemandCast/internal/service/metrics"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/usecase"
	applogger "DemandCast/pkg/logger"
)

// ForecastHandler is the plain net/http variant of the forecast API, with
// per-client rate limiting and response caching for the read endpoints.
type ForecastHandler struct {
	forecast *usecase.ForecastUseCase
	feedback *usecase.FeedbackUseCase
	learning *usecase.LearningMetricsUseCase
	history  *usecase.HistoryUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

func NewForecastHandler(
	forecast *usecase.ForecastUseCase,
	feedback *usecase.FeedbackUseCase,
	learning *usecase.LearningMetricsUseCase,
	history *usecase.HistoryUseCase,
) *ForecastHandler {
	metrics.Register()
	return &ForecastHandler{
		forecast: forecast,
		feedback: feedback,
		learning: learning,
		history:  history,
		rl:       ratelimit.New(),
	}
}

func (h *ForecastHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *ForecastHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *ForecastHandler) Forecast() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "forecast"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		commodity := r.URL.Query().Get("commodity")
		if commodity == "" {
			if h.l != nil {
				h.l.Warn("forecast missing commodity")
			}
			http.Error(w, "commodity required", http.StatusBadRequest)
			return
		}
		horizon := parseInt(r.URL.Query().Get("horizon"), 3)
		lookback := parseInt(r.URL.Query().Get("lookback"), domrepo.DefaultLookbackMonths)
		persist := r.URL.Query().Get("persist") != "false"

		if !h.rl.Allow(r.RemoteAddr+":forecast", 5, 2) {
			if h.l != nil {
				h.l.Warn("forecast rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		// Persisted forecasts create prediction records; those must not be
		// served from cache.
		cacheKey := ""
		if !persist {
			cacheKey = "forecast:" + commodity + ":" + strconv.Itoa(horizon) + ":" + strconv.Itoa(lookback)
			if h.serveCached(w, endpoint, cacheKey) {
				return
			}
		}

		res, err := h.forecast.Forecast(r.Context(), usecase.ForecastParams{
			Commodity: commodity,
			Horizon:   horizon,
			Lookback:  lookback,
			Persist:   persist,
		})
		if err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("forecast error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.ForecastDataQuality.WithLabelValues(res.DataQuality).Inc()
		h.writeJSON(w, endpoint, cacheKey, res, 60*time.Second)
	}
}

func (h *ForecastHandler) Feedback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "feedback"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			PredictionID string  `json:"prediction_id"`
			ActualValue  float64 `json:"actual_value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if req.PredictionID == "" {
			http.Error(w, "prediction_id required", http.StatusBadRequest)
			return
		}
		if req.ActualValue < 0 {
			http.Error(w, "actual_value must be non-negative", http.StatusBadRequest)
			return
		}

		res, err := h.feedback.Submit(r.Context(), req.PredictionID, req.ActualValue)
		if err != nil {
			if errors.Is(err, domrepo.ErrNotFound) {
				http.Error(w, "prediction not found", http.StatusNotFound)
				return
			}
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("feedback error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, "", res, 0)
	}
}

func (h *ForecastHandler) Learning() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "learning"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		commodity := r.URL.Query().Get("commodity")
		if commodity == "" {
			http.Error(w, "commodity required", http.StatusBadRequest)
			return
		}
		limit := parseInt(r.URL.Query().Get("limit"), 200)
		if !h.rl.Allow(r.RemoteAddr+":learning", 5, 2) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "learning:" + commodity
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}

		res, err := h.learning.Report(r.Context(), commodity, limit)
		if err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("learning error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, res, 30*time.Second)
	}
}

func (h *ForecastHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "history"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		commodity := r.URL.Query().Get("commodity")
		if commodity == "" {
			http.Error(w, "commodity required", http.StatusBadRequest)
			return
		}
		lookback := parseInt(r.URL.Query().Get("lookback"), domrepo.DefaultLookbackMonths)
		if !h.rl.Allow(r.RemoteAddr+":history", 5, 2) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "history:" + commodity + ":" + strconv.Itoa(lookback)
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}

		res, err := h.history.MonthlyAggregates(r.Context(), commodity, lookback)
		if err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("history error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, res, 5*time.Minute)
	}
}

func (h *ForecastHandler) serveCached(w http.ResponseWriter, endpoint, key string) bool {
	if h.cache == nil || key == "" {
		return false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
		}
		return false
	}
	if !ok {
		if h.l != nil {
			h.l.Debug(endpoint+" cache_miss", applogger.String("key", key))
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	if h.l != nil {
		h.l.Debug(endpoint+" cache_hit", applogger.String("key", key))
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
	return true
}

func (h *ForecastHandler) writeJSON(w http.ResponseWriter, endpoint, cacheKey string, v any, ttl time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		if h.l != nil {
			h.l.Error(endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil && cacheKey != "" && ttl > 0 {
		if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
