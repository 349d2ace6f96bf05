package di

import (
	"context"
	"fmt"
	"net/http"

	"kgview/application/ports"
	appservices "kgview/application/services"
	"kgview/application/session"
	domainconfig "kgview/domain/config"
	"kgview/domain/layout"
	domainservices "kgview/domain/services"
	"kgview/infrastructure/cache"
	"kgview/infrastructure/config"
	"kgview/infrastructure/knowledgestore"
	"kgview/infrastructure/messaging"
	"kgview/infrastructure/messaging/eventbridge"
	"kgview/infrastructure/observability"
	"kgview/infrastructure/persistence/dynamodb"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// ProvideLayoutWatcher loads the layout overlay. It returns nil when no
// LAYOUT_CONFIG_PATH is configured.
func ProvideLayoutWatcher(cfg *config.Config, logger *zap.Logger) (*config.LayoutWatcher, func(), error) {
	if cfg.LayoutConfigPath == "" {
		return nil, func() {}, nil
	}
	watcher, err := config.NewLayoutWatcher(cfg.LayoutConfigPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return watcher, watcher.Stop, nil
}

// ProvideDomainConfig selects the environment profile and applies the overlay
func ProvideDomainConfig(cfg *config.Config, watcher *config.LayoutWatcher) (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	if watcher != nil {
		watcher.Current().ApplyTo(dc)
	}
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSnapshotSource picks the knowledge store. The fallback source is
// nil, which makes the loader serve the built-in sample.
func ProvideSnapshotSource(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.SnapshotSource {
	switch cfg.SnapshotSource {
	case config.SourceHTTP:
		storeCfg := knowledgestore.DefaultHTTPSourceConfig(cfg.KnowledgeStoreURL)
		storeCfg.Timeout = cfg.StoreTimeout
		return knowledgestore.NewHTTPSource(storeCfg, &http.Client{Timeout: cfg.StoreTimeout}, logger)
	case config.SourceDynamoDB:
		return dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, cfg.GraphUserID, logger)
	default:
		logger.Info("No knowledge store configured, serving the sample graph")
		return nil
	}
}

// ProvideSnapshotCache uses Redis when REDIS_URL is set and an in-memory
// cache otherwise
func ProvideSnapshotCache(cfg *config.Config, logger *zap.Logger) (ports.SnapshotCache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(64, logger), func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(cache.RedisOptions{URL: cfg.RedisURL}, logger)
	if err != nil {
		return nil, nil, err
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}, nil
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("kgview")
}

// ProvideMetrics exposes the collector to the application layer
func ProvideMetrics(cfg *config.Config, collector *observability.Collector) ports.Metrics {
	if !cfg.EnableMetrics {
		return ports.NoopMetrics{}
	}
	return collector
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "kgview",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}, nil
}

// ProvideGraphBuilder creates the snapshot ingester
func ProvideGraphBuilder(dc *domainconfig.DomainConfig) *domainservices.GraphBuilder {
	return domainservices.NewGraphBuilder(domainservices.NewDefaultContentAnalyzer(), dc)
}

// ProvideInferencer creates the relationship inferencer
func ProvideInferencer(dc *domainconfig.DomainConfig) domainservices.RelationshipInferencer {
	analyzer := domainservices.NewDefaultContentAnalyzer()
	return domainservices.NewDefaultRelationshipInferencer(
		domainservices.NewInferenceConfig(dc),
		domainservices.NewDefaultSimilarityCalculator(analyzer),
	)
}

// ProvideSnapshotLoader creates the snapshot loader
func ProvideSnapshotLoader(
	cfg *config.Config,
	source ports.SnapshotSource,
	snapshotCache ports.SnapshotCache,
	builder *domainservices.GraphBuilder,
	metrics ports.Metrics,
	logger *zap.Logger,
) *appservices.SnapshotLoader {
	return appservices.NewSnapshotLoader(source, snapshotCache, cfg.SnapshotCacheTTL, builder, metrics, logger)
}

// ProvideBroadcaster creates the in-process event fan-out
func ProvideBroadcaster(logger *zap.Logger) *messaging.Broadcaster {
	return messaging.NewBroadcaster(256, logger)
}

// ProvideEventPublisher sends events to subscribers and, when EVENT_BUS_NAME
// is set, to EventBridge
func ProvideEventPublisher(
	cfg *config.Config,
	broadcaster *messaging.Broadcaster,
	client *awseventbridge.Client,
	logger *zap.Logger,
) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return broadcaster
	}
	return messaging.FanOut{
		broadcaster,
		eventbridge.NewPublisher(client, cfg.EventBusName, logger),
	}
}

// ProvideSessionManager creates the session manager
func ProvideSessionManager(
	dc *domainconfig.DomainConfig,
	loader *appservices.SnapshotLoader,
	inferencer domainservices.RelationshipInferencer,
	publisher ports.EventPublisher,
	broadcaster *messaging.Broadcaster,
	metrics ports.Metrics,
	watcher *config.LayoutWatcher,
	logger *zap.Logger,
) (*session.Manager, func()) {
	deps := session.Dependencies{
		Config:     dc,
		Inferencer: inferencer,
		Publisher:  publisher,
		Streams:    broadcaster,
		Metrics:    metrics,
		Logger:     logger,
	}
	if loader != nil {
		deps.Loader = loader
	}
	if watcher != nil {
		deps.LayoutDefaults = func() layout.Params { return watcher.Current().Layout }
	}
	manager := session.NewManager(deps)
	return manager, manager.CloseAll
}
