package di

import (
	"kgview/application/ports"
	appservices "kgview/application/services"
	"kgview/application/session"
	domainconfig "kgview/domain/config"
	"kgview/infrastructure/config"
	"kgview/infrastructure/messaging"
	"kgview/infrastructure/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	DomainConfig  *domainconfig.DomainConfig
	Logger        *zap.Logger
	Collector     *observability.Collector
	Tracing       *observability.TracerProvider
	LayoutWatcher *config.LayoutWatcher
	Source        ports.SnapshotSource
	Cache         ports.SnapshotCache
	Loader        *appservices.SnapshotLoader
	Broadcaster   *messaging.Broadcaster
	Publisher     ports.EventPublisher
	Sessions      *session.Manager
}
