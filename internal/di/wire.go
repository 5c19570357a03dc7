//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideRawWarehouse,
		ProvideRawStore,
		ProvideReportStore,
		ProvideAnalyticsWarehouse,
		ProvideBarPublisher,

		// Domain services
		ProvideFMPClient,
		ProvideCacheService,
		ProvideJobsPublisher,

		// Use cases
		ProvideBarProcessor,
		ProvideLoadPipeline,
		ProvideKafkaBarsHandler,
		ProvideExtractor,
		ProvideTransformer,
		ProvideJobsConsumer,
		ProvideMarketQueries,
		ProvideQualityRunner,
		ProvideReportBuilder,

		// HTTP
		ProvideMarketHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
