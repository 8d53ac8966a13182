package di

import (
	"context"
	"fmt"
	"time"

	"DemandCast/internal/domain/repository"
	"DemandCast/internal/handler/api"
	mid "DemandCast/internal/middleware"
	internalrepo "DemandCast/internal/repository"
	icache "DemandCast/internal/service/cache"
	"DemandCast/internal/service/macrofeed"
	"DemandCast/internal/service/pricefeed"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/services/learning"
	"DemandCast/internal/usecase"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	pkghttp "DemandCast/pkg/http"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/metrics"
	"DemandCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS demandcast",
		"CREATE TABLE IF NOT EXISTS demandcast.transactions (ts DateTime, commodity String, quantity Float64, unit_price Float64) ENGINE=MergeTree ORDER BY (commodity, ts)",
		"CREATE TABLE IF NOT EXISTS demandcast.market_prices_raw (ts DateTime, commodity String, price Float64, source String, event_id String) ENGINE=MergeTree ORDER BY (commodity, ts)",
		"CREATE TABLE IF NOT EXISTS demandcast.sentiment_signals (ts DateTime, commodity String, sentiment String, growth_forecast String) ENGINE=MergeTree ORDER BY (commodity, ts)",
		"CREATE TABLE IF NOT EXISTS demandcast.predictions (id String, commodity String, predicted_value Float64, period_label String, months_ahead UInt8, factors_used Array(String), confidence Float64, created_at DateTime, resolved UInt8, actual_value Float64, accuracy_pct Float64, outcome_date DateTime) ENGINE=MergeTree ORDER BY (commodity, created_at, id)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisClient creates the Redis client backing parameters and caching.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse tick storage repository.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.TickStorage {
	return internalrepo.NewClickHouseTickStorage(chClient.DB(), cfg.ClickHouse.Database+".market_prices_raw")
}

// ProvideTickPublisher creates Kafka publisher repository.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.Topic)
}

// ProvidePriceFeedStream creates the price feed WebSocket stream.
func ProvidePriceFeedStream(cfg *config.Config) repository.MarketStream {
	return pricefeed.New(
		cfg.PriceFeed.APIKey,
		cfg.PriceFeed.WebSocketURL,
		cfg.PriceFeed.Commodities,
		cfg.PriceFeed.ReconnectDelay,
		cfg.PriceFeed.PingInterval,
	)
}

// ProvideHistoryStore creates the ClickHouse history store.
func ProvideHistoryStore(chClient *pkgch.Client) *internalrepo.CHHistoryStore {
	return internalrepo.NewCHHistoryStore(chClient)
}

// ProvideOutcomeStore creates the ClickHouse outcome store.
func ProvideOutcomeStore(chClient *pkgch.Client) *internalrepo.CHOutcomeStore {
	return internalrepo.NewCHOutcomeStore(chClient)
}

// ProvideParamsStore creates the Redis parameter store.
func ProvideParamsStore(rdb *redis.Client) *internalrepo.RedisParamsStore {
	return internalrepo.NewRedisParamsStore(rdb)
}

// ProvideLearningEngine creates the learning engine.
func ProvideLearningEngine(outcomes *internalrepo.CHOutcomeStore, params *internalrepo.RedisParamsStore) *learning.Engine {
	return learning.NewEngine(outcomes, params)
}

// ProvideForecaster creates the forecaster with a time-seeded jitter source.
func ProvideForecaster() *forecast.Forecaster {
	return forecast.NewForecaster(nil)
}

// ProvideForecastUseCase creates the forecast use case.
func ProvideForecastUseCase(history *internalrepo.CHHistoryStore, engine *learning.Engine, caster *forecast.Forecaster) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(history, engine, caster)
}

// ProvideFeedbackUseCase creates the feedback use case.
func ProvideFeedbackUseCase(engine *learning.Engine, outcomes *internalrepo.CHOutcomeStore, cfg *config.Config) *usecase.FeedbackUseCase {
	uc := usecase.NewFeedbackUseCase(engine, outcomes)
	uc.SetLearningWindow(cfg.Learning.Window)
	return uc
}

// ProvideLearningMetricsUseCase creates the learning metrics use case.
func ProvideLearningMetricsUseCase(engine *learning.Engine) *usecase.LearningMetricsUseCase {
	return usecase.NewLearningMetricsUseCase(engine)
}

// ProvideHistoryUseCase creates the history use case.
func ProvideHistoryUseCase(history *internalrepo.CHHistoryStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(history)
}

// ProvidePriceProcessor creates the tick processor use case.
func ProvidePriceProcessor(
	pub repository.Publisher,
	store repository.TickStorage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PriceProcessor {
	return usecase.NewPriceProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvidePriceCollector creates the price collector use case.
func ProvidePriceCollector(
	stream repository.MarketStream,
	processor *usecase.PriceProcessor,
	metrics repository.Metrics,
) *usecase.PriceCollector {
	// Build middleware pipeline between WebSocket and backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewPriceCollector(stream, processor, metrics, pipe)
}

// ProvideKafkaTicksHandler registers handler for the ticks topic.
func ProvideKafkaTicksHandler(store repository.TickStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideKafkaOutcomesHandler registers handler for the outcome events topic.
func ProvideKafkaOutcomesHandler(feedback *usecase.FeedbackUseCase, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaOutcomesHandler {
	return usecase.NewKafkaOutcomesHandler(cfg.Kafka.OutcomesTopic, feedback, metrics)
}

// ProvideKafkaHandlers collects the message handlers the consumer serves.
func ProvideKafkaHandlers(th *usecase.KafkaTicksHandler, oh *usecase.KafkaOutcomesHandler, cfg *config.Config) []pkgkafka.MessageHandler {
	handlers := make([]pkgkafka.MessageHandler, 0, 2)
	// Tick consumption only matters when ticks go through Kafka.
	if cfg.Backend.Type == "kafka" {
		handlers = append(handlers, th)
	}
	if cfg.Kafka.OutcomesTopic != "" {
		handlers = append(handlers, oh)
	}
	return handlers
}

// ProvideMacroPoller creates the macro feed poller when enabled.
func ProvideMacroPoller(history *internalrepo.CHHistoryStore, metrics repository.Metrics, cfg *config.Config) *macrofeed.Poller {
	if !cfg.MacroFeed.Enabled {
		return nil
	}
	client := pkghttp.NewClient(pkghttp.WithTimeout(cfg.MacroFeed.Timeout))
	return macrofeed.NewPoller(
		client,
		history,
		metrics,
		cfg.MacroFeed.BaseURL,
		cfg.MacroFeed.APIKey,
		cfg.PriceFeed.Commodities,
		cfg.MacroFeed.Interval,
	)
}

// ProvideLogger creates the application logger.
func ProvideLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
}

// ProvideEchoHandler creates the forecast HTTP handler with all use cases
// wired in, backed by a Redis response cache for the read endpoints.
func ProvideEchoHandler(
	l *applogger.Logger,
	fc *usecase.ForecastUseCase,
	fb *usecase.FeedbackUseCase,
	lm *usecase.LearningMetricsUseCase,
	hist *usecase.HistoryUseCase,
	rdb *redis.Client,
	cfg *config.Config,
) *api.ForecastEchoHandler {
	fc.SetLogger(l)
	fb.SetLogger(l)
	lm.SetLogger(l)
	hist.SetLogger(l)
	h := api.NewForecastEchoHandler(l, fc, fb, lm, hist)
	h.SetCache(icache.NewRedisCacheFromClient(rdb), api.CacheTTL{
		Learning: cfg.Redis.CacheTTL.Learning,
		History:  cfg.Redis.CacheTTL.History,
	})
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	rdb *redis.Client,
	poller *macrofeed.Poller,
	httpHandler *api.ForecastEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, handlers, chClient, rdb)
	// attach tick processor to app for closing resources via collector
	if collector != nil {
		app.PriceProc = collector.Processor()
	}
	if poller != nil {
		app.SetMacroPoller(poller)
	}
	if httpHandler != nil {
		app.SetHTTPHandler(httpHandler)
	}
	return app
}
