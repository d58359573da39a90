//go:build wireinject
// +build wireinject

package di

import (
	"YutaiScan/pkg/config"
	"YutaiScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvidePriceStore,
		ProvideInstrumentStore,
		ProvideResultStore,
		ProvideResultPublisher,

		// Domain services
		ProvideScanner,
		ProvideRiskAnalyzer,
		ProvideAllocator,

		// Use cases
		ProvideTimingAnalyzer,
		ProvideBatchRunner,
		ProvideResultProcessor,
		ProvideResultPipeline,
		ProvideKafkaBarsHandler,

		// HTTP handlers
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
