//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ideagraph/application/services"
	"ideagraph/infrastructure/config"
	"ideagraph/infrastructure/llm"
	"ideagraph/infrastructure/observability"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideSQLiteDB,
	ProvideProjectRepository,
	ProvideTokenCounter,
	ProvideMetrics,
	wire.Bind(new(services.Metrics), new(*observability.Collector)),
	wire.Bind(new(llm.Recorder), new(*observability.Collector)),
	ProvideTracing,
	ProvideTracer,
	ProvideLanguageModel,
	ProvideRetrieval,
	ProvideEventPublisher,
	ProvidePromptCatalog,
	ProvidePromptWatcher,
	ProvideServiceOptions,
	ProvideProjectService,
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideReadyFunc,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
