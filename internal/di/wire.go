//go:build wireinject
// +build wireinject

package di

import (
	"DemandCast/pkg/config"
	"DemandCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvidePriceFeedStream,
		ProvideHistoryStore,
		ProvideOutcomeStore,
		ProvideParamsStore,

		// Engine
		ProvideLearningEngine,
		ProvideForecaster,

		// Use cases
		ProvideForecastUseCase,
		ProvideFeedbackUseCase,
		ProvideLearningMetricsUseCase,
		ProvideHistoryUseCase,
		ProvidePriceProcessor,
		ProvidePriceCollector,
		ProvideKafkaTicksHandler,
		ProvideKafkaOutcomesHandler,
		ProvideKafkaHandlers,
		ProvideMacroPoller,

		// HTTP
		ProvideLogger,
		ProvideEchoHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
