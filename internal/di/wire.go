//go:build wireinject
// +build wireinject

package di

import (
	"SentiPull/pkg/config"
	"SentiPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideStorage,
		ProvidePublisher,
		ProvideObservationStore,

		// Collection sources and scoring
		ProvideScorer,
		ProvidePostSupplies,
		ProvidePriceSupply,

		// Use cases
		ProvideProcessor,
		ProvideCollector,
		ProvideAnalysisUseCase,
		ProvideOverviewUseCase,
		ProvideObservationsHandler,

		// Caching and refresh queue
		ProvideResultCache,
		ProvideQueue,
		ProvideScheduler,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
