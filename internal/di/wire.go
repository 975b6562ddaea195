//go:build wireinject
// +build wireinject

package di

import (
	"VolSpike/pkg/config"
	"VolSpike/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,

		// Upstream access
		ProvideSession,
		ProvideHistoryCache,
		ProvideHistoryClient,
		ProvideNethouseClient,

		// Downstream transport
		ProvideKafkaProducer,
		ProvideSpikePublisher,

		// Core and presentation
		ProvideAnalyzer,
		ProvideProgressHub,
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
