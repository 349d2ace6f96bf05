package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kgview/application/session"
	"kgview/infrastructure/config"
	"kgview/infrastructure/di"
	"kgview/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	if watcher := container.LayoutWatcher; watcher != nil {
		watcher.OnChange(func(file *config.LayoutFile) {
			logger.Info("Applying reloaded layout parameters",
				zap.String("mode", string(file.LayoutMode())),
				zap.Int("sessions", len(container.Sessions.List())),
			)
			container.Sessions.ReconfigureAll(session.ReconfigureRequest{
				Mode:   file.LayoutMode(),
				Params: file.Layout,
			}, time.Now())
		})
		watcher.Start()
	}

	go container.Sessions.Run(ctx, cfg.TickInterval)

	options := rest.Options{EnableCORS: cfg.EnableCORS}
	if cfg.EnableMetrics && container.Collector != nil {
		options.Collector = container.Collector
	}
	router := rest.NewRouter(container.Sessions, container.Broadcaster, options, logger)

	// WriteTimeout stays zero so event streams are not cut off; the
	// stream handler manages its own deadline.
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("snapshot_source", cfg.SnapshotSource),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	log.Println("Server stopped")
}
