package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"DemandCast/internal/handler/api"
	"DemandCast/internal/repository"
	"DemandCast/internal/service/macrofeed"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/services/learning"
	"DemandCast/internal/usecase"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.PriceCollector
	consumer    *pkgkafka.Consumer
	handlers    []pkgkafka.MessageHandler
	chClient    *pkgch.Client
	rdb         *redis.Client
	poller      *macrofeed.Poller
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	PriceProc   *usecase.PriceProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		handlers:  handlers,
		chClient:  chClient,
		rdb:       rdb,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetMacroPoller attaches the optional macro feed poller.
func (a *App) SetMacroPoller(p *macrofeed.Poller) { a.poller = p }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server; build the default forecast API when DI did not
	// inject a handler.
	httpHandler := a.httpHandler
	if httpHandler == nil && a.chClient != nil && a.rdb != nil {
		history := repository.NewCHHistoryStore(a.chClient)
		history.SetLogger(l)
		outcomes := repository.NewCHOutcomeStore(a.chClient)
		outcomes.SetLogger(l)
		params := repository.NewRedisParamsStore(a.rdb)
		params.SetLogger(l)

		engine := learning.NewEngine(outcomes, params)
		engine.SetLogger(l)
		caster := forecast.NewForecaster(nil)

		fc := usecase.NewForecastUseCase(history, engine, caster)
		fc.SetLogger(l)
		fb := usecase.NewFeedbackUseCase(engine, outcomes)
		fb.SetLogger(l)
		fb.SetLearningWindow(a.cfg.Learning.Window)
		lm := usecase.NewLearningMetricsUseCase(engine)
		lm.SetLogger(l)
		hist := usecase.NewHistoryUseCase(history)
		hist.SetLogger(l)

		httpHandler = api.NewForecastEchoHandler(l, fc, fb, lm, hist)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("commodities", a.cfg.PriceFeed.Commodities))

	// Start consumer if configured
	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.Int("topics", len(a.handlers)))
	}

	// Start macro feed poller if configured
	if a.poller != nil {
		a.poller.SetLogger(l)
		a.poller.Start(ctx)
		l.Info("macro feed poller started")
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop macro feed poller
	if a.poller != nil {
		a.poller.Stop()
	}

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close tick processor resources (publisher/storage)
	if a.PriceProc != nil {
		a.PriceProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
