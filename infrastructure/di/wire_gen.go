//go:build !wireinject
// +build !wireinject

// The injector below mirrors the provider set in wire.go and is kept in
// sync by hand. Running wire over the package regenerates it.

package di

import (
	"context"

	"kgview/infrastructure/config"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	layoutWatcher, cleanup, err := ProvideLayoutWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	configDomainConfig, err := ProvideDomainConfig(cfg, layoutWatcher)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	collector := ProvideCollector()
	observabilityTracerProvider, cleanup2, err := ProvideTracing(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	awsConfig, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	client := ProvideDynamoDBClient(awsConfig)
	snapshotSource := ProvideSnapshotSource(cfg, client, logger)
	snapshotCache, cleanup3, err := ProvideSnapshotCache(cfg, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	graphBuilder := ProvideGraphBuilder(configDomainConfig)
	metrics := ProvideMetrics(cfg, collector)
	snapshotLoader := ProvideSnapshotLoader(cfg, snapshotSource, snapshotCache, graphBuilder, metrics, logger)
	broadcaster := ProvideBroadcaster(logger)
	eventbridgeClient := ProvideEventBridgeClient(awsConfig)
	eventPublisher := ProvideEventPublisher(cfg, broadcaster, eventbridgeClient, logger)
	relationshipInferencer := ProvideInferencer(configDomainConfig)
	manager, cleanup4 := ProvideSessionManager(configDomainConfig, snapshotLoader, relationshipInferencer, eventPublisher, broadcaster, metrics, layoutWatcher, logger)
	container := &Container{
		Config:        cfg,
		DomainConfig:  configDomainConfig,
		Logger:        logger,
		Collector:     collector,
		Tracing:       observabilityTracerProvider,
		LayoutWatcher: layoutWatcher,
		Source:        snapshotSource,
		Cache:         snapshotCache,
		Loader:        snapshotLoader,
		Broadcaster:   broadcaster,
		Publisher:     eventPublisher,
		Sessions:      manager,
	}
	return container, func() {
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
