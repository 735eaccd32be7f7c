//go:build wireinject
// +build wireinject

package di

import (
	"MoodPulse/pkg/config"
	"MoodPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,

		// Stores and caches
		ProvidePriceStore,
		ProvideActionLog,
		ProvideDedupCache,

		// Market data and collaborators
		ProvideDataSource,
		ProvideMarketStream,
		ProvideCompletion,
		ProvidePoster,

		// Export path
		ProvideExporter,
		ProvideExportQueue,
		ProvideExportSink,

		// Core engine
		ProvideTracker,
		ProvideThresholds,
		ProvideClassifier,
		ProvideDispatcher,
		ProvideScheduler,
		ProvideStreamCollector,

		// HTTP surface
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
