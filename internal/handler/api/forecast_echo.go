package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	models "DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	icache "DemandCast/internal/service/cache"
	"DemandCast/internal/service/metrics"
	"DemandCast/internal/usecase"
	xhttp "DemandCast/pkg/http"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CacheTTL holds per-endpoint response cache lifetimes. A zero TTL disables
// caching for that endpoint.
type CacheTTL struct {
	Learning time.Duration
	History  time.Duration
}

// ForecastEchoHandler exposes the forecasting engine over Echo.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	forecast *usecase.ForecastUseCase
	feedback *usecase.FeedbackUseCase
	learning *usecase.LearningMetricsUseCase
	history  *usecase.HistoryUseCase
	cache    icache.BytesCache
	ttl      CacheTTL
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecast *usecase.ForecastUseCase,
	feedback *usecase.FeedbackUseCase,
	learning *usecase.LearningMetricsUseCase,
	history *usecase.HistoryUseCase,
) *ForecastEchoHandler {
	metrics.Register()
	return &ForecastEchoHandler{
		logger:   logger,
		forecast: forecast,
		feedback: feedback,
		learning: learning,
		history:  history,
	}
}

// SetCache enables response caching for the read-mostly endpoints. Forecast
// responses are never cached here: persisted runs mint prediction records.
func (h *ForecastEchoHandler) SetCache(c icache.BytesCache, ttl CacheTTL) {
	h.cache = c
	h.ttl = ttl
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.POST("/feedback", h.Feedback)
	g.GET("/learning", h.Learning)
	g.GET("/history", h.History)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ForecastLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds()) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}
	res, err := h.forecast.Forecast(c.Request().Context(), usecase.ForecastParams{
		Commodity: req.Commodity,
		Horizon:   req.Horizon,
		Lookback:  req.Lookback,
		Persist:   persist,
	})
	if err != nil {
		metrics.ForecastErrors.WithLabelValues("forecast").Inc()
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	metrics.ForecastDataQuality.WithLabelValues(res.DataQuality).Inc()
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Feedback(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ForecastLatency.WithLabelValues("feedback").Observe(time.Since(start).Seconds()) }()

	req := &models.FeedbackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.feedback.Submit(c.Request().Context(), req.PredictionID, req.ActualValue)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "prediction not found")
		}
		metrics.ForecastErrors.WithLabelValues("feedback").Inc()
		h.logger.Error("feedback usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Learning(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ForecastLatency.WithLabelValues("learning").Observe(time.Since(start).Seconds()) }()

	req := &models.LearningRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "learning:" + req.Commodity + ":" + strconv.Itoa(req.Limit)
	if b, ok := h.cached(key); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	res, err := h.learning.Report(c.Request().Context(), req.Commodity, req.Limit)
	if err != nil {
		metrics.ForecastErrors.WithLabelValues("learning").Inc()
		h.logger.Error("learning usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.store(key, res, h.ttl.Learning)
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.ForecastLatency.WithLabelValues("history").Observe(time.Since(start).Seconds()) }()

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "history:" + req.Commodity + ":" + strconv.Itoa(req.Lookback)
	if b, ok := h.cached(key); ok {
		c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
		return c.JSONBlob(http.StatusOK, b)
	}

	res, err := h.history.MonthlyAggregates(c.Request().Context(), req.Commodity, req.Lookback)
	if err != nil {
		metrics.ForecastErrors.WithLabelValues("history").Inc()
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.store(key, res, h.ttl.History)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

// cached returns the stored envelope for key when caching is on and the entry
// is live.
func (h *ForecastEchoHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

// store caches the success envelope for key. Best effort; a cache write
// failure only logs.
func (h *ForecastEchoHandler) store(key string, data interface{}, ttl time.Duration) {
	if h.cache == nil || ttl <= 0 {
		return
	}
	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
	if err != nil {
		h.logger.Warn("cache marshal error", xlogger.String("key", key), xlogger.Error(err))
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
}
