//go:build wireinject
// +build wireinject

package di

import (
	"FinDash/pkg/config"
	"FinDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Identity
		ProvideIdentityClient,
		ProvideIdentityProvider,
		ProvideSessions,

		// Infrastructure
		ProvideCache,
		ProvideProfileStore,
		ProvideKafkaProducer,
		ProvideRedisQueue,
		ProvideEventPublisher,
		ProvideCandleStore,

		// Use cases
		ProvideAuthUseCase,
		ProvideCandlesUseCase,
		ProvideChartConfig,
		ProvideChartRenderer,
		ProvideProfileBackfill,
		ProvideBackfillConsumer,

		// HTTP
		ProvideRateLimiter,
		ProvideGate,
		ProvideAuthHandler,
		ProvideChartsHandler,
		ProvidePagesHandler,
		ProvideHTTPServer,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
