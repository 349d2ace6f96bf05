//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"kgview/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideLayoutWatcher,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideSnapshotSource,
	ProvideSnapshotCache,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracing,
	ProvideGraphBuilder,
	ProvideInferencer,
	ProvideSnapshotLoader,
	ProvideBroadcaster,
	ProvideEventPublisher,
	ProvideSessionManager,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
