package services

import (
	"context"
	"strings"
	"time"

	"kgview/application/ports"
	"kgview/domain/core/aggregates"
	domainservices "kgview/domain/services"
	"kgview/domain/snapshot"
	pkgerrors "kgview/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Where a loaded graph came from
const (
	OriginStore    = "store"
	OriginCache    = "cache"
	OriginFallback = "fallback"
)

// LoadResult is one ingested snapshot. Every caller gets its own Graph.
type LoadResult struct {
	Graph  *aggregates.Graph
	Report domainservices.IngestReport
	Origin string
}

// SnapshotLoader fetches snapshots from the knowledge store and builds graphs.
// Concurrent loads of the same query share one fetch.
type SnapshotLoader struct {
	source   ports.SnapshotSource
	cache    ports.SnapshotCache
	cacheTTL time.Duration
	builder  *domainservices.GraphBuilder
	group    singleflight.Group
	tracer   trace.Tracer
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewSnapshotLoader creates a loader. A nil source always yields the
// fallback sample and a nil cache disables caching.
func NewSnapshotLoader(
	source ports.SnapshotSource,
	cache ports.SnapshotCache,
	cacheTTL time.Duration,
	builder *domainservices.GraphBuilder,
	metrics ports.Metrics,
	logger *zap.Logger,
) *SnapshotLoader {
	if builder == nil {
		builder = domainservices.NewGraphBuilder(nil, nil)
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotLoader{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		builder:  builder,
		tracer:   otel.Tracer("kgview/snapshot-loader"),
		metrics:  metrics,
		logger:   logger,
	}
}

// Load fetches the snapshot for query (empty means everything) and builds a
// graph. Store failures are returned as UNAVAILABLE errors; undecodable or
// empty snapshots fall back to the sample graph.
func (l *SnapshotLoader) Load(ctx context.Context, query string) (*LoadResult, error) {
	query = strings.TrimSpace(query)
	ctx, span := l.tracer.Start(ctx, "snapshot.Load",
		trace.WithAttributes(attribute.String("snapshot.query", query)),
	)
	defer span.End()

	key := cacheKey(query)
	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		return l.fetch(ctx, key, query)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot fetch failed")
		l.metrics.IncSnapshotLoads("error")
		l.logger.Warn("Snapshot fetch failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	fetched := v.(*fetchResult)
	graph, report := l.builder.Build(fetched.snapshot)
	origin := fetched.origin
	if report.UsedFallback {
		origin = OriginFallback
	}

	span.SetAttributes(
		attribute.String("snapshot.origin", origin),
		attribute.Bool("snapshot.shared", shared),
		attribute.Int("graph.nodes", graph.NodeCount()),
		attribute.Int("graph.edges", graph.EdgeCount()),
	)
	l.metrics.IncSnapshotLoads(origin)
	l.logger.Info("Snapshot loaded",
		zap.String("origin", origin),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("danglingEdges", report.DanglingEdges),
		zap.Bool("truncated", report.Truncated),
	)

	return &LoadResult{Graph: graph, Report: report, Origin: origin}, nil
}

// Invalidate drops the cached snapshot for query
func (l *SnapshotLoader) Invalidate(ctx context.Context, query string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, cacheKey(strings.TrimSpace(query))); err != nil {
		l.logger.Warn("Failed to invalidate snapshot cache", zap.Error(err))
	}
}

type fetchResult struct {
	snapshot *snapshot.Snapshot
	origin   string
}

func (l *SnapshotLoader) fetch(ctx context.Context, key, query string) (*fetchResult, error) {
	if l.source == nil {
		return &fetchResult{origin: OriginFallback}, nil
	}

	if l.cache != nil {
		data, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			l.logger.Warn("Snapshot cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if snap, err := snapshot.Decode(data); err == nil {
				return &fetchResult{snapshot: snap, origin: OriginCache}, nil
			}
			l.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		}
	}

	var snap *snapshot.Snapshot
	var err error
	if query == "" {
		snap, err = l.source.Fetch(ctx)
	} else {
		snap, err = l.source.Query(ctx, query)
	}
	if err != nil {
		if pkgerrors.IsValidation(err) {
			// malformed response falls back
			l.logger.Warn("Knowledge store returned malformed snapshot", zap.Error(err))
			return &fetchResult{origin: OriginFallback}, nil
		}
		if pkgerrors.IsUnavailable(err) || pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal) {
			return nil, err
		}
		return nil, pkgerrors.NewUnavailableError("knowledge store", err)
	}

	if l.cache != nil && !snap.IsEmpty() {
		if data, err := snap.Encode(); err == nil {
			if err := l.cache.Set(ctx, key, data, l.cacheTTL); err != nil {
				l.logger.Warn("Snapshot cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return &fetchResult{snapshot: snap, origin: OriginStore}, nil
}

func cacheKey(query string) string {
	if query == "" {
		return "snapshot:all"
	}
	return "snapshot:q:" + strings.ToLower(query)
}
