//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaConsumer,

		// Repositories
		ProvideBarStore,
		ProvideForecastStore,
		ProvideArtifactStore,
		ProvideHistoryPublisher,
		ProvideLimiter,
		ProvideBarSource,

		// Domain services
		ProvideEngine,
		ProvidePolicy,
		ProvideTrainer,

		// Use cases
		ProvideIngestUseCase,
		ProvideTrainUseCase,
		ProvidePredictUseCase,
		ProvideEvaluateUseCase,
		ProvideBatchRunner,
		ProvidePipeline,
		ProvideQueryUseCase,
		ProvideHistoryHandler,

		// Transport
		ProvideAPIHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
