// File: cmd/server/main.go
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"engla_backend/internal/app"
	"engla_backend/internal/config"
	"engla_backend/internal/platform/cache"
	"engla_backend/internal/platform/database"
	"engla_backend/internal/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}
	defer cleanup()

	appLogger := server.Logger()
	zap.ReplaceGlobals(appLogger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelBoot()
	if err := database.HealthCheck(bootCtx, server.DB()); err != nil {
		appLogger.Fatal("Database is unreachable at startup", zap.Error(err))
	}
	if err := cache.HealthCheck(bootCtx, server.Cache()); err != nil {
		appLogger.Fatal("Redis is unreachable at startup", zap.Error(err))
	}
	if err := server.Migrate(); err != nil {
		appLogger.Fatal("Schema migration failed", zap.Error(err))
	}

	coordinator := shutdown.New(appLogger, cfg.ServerTimeout)
	coordinator.Register("http-server", func(ctx context.Context, _ string, _ error) error {
		return server.Shutdown(ctx)
	})
	coordinator.Register("database", func(_ context.Context, _ string, _ error) error {
		return database.Close(server.DB())
	})
	coordinator.Register("redis", func(_ context.Context, _ string, _ error) error {
		return cache.Close(server.Cache())
	})

	switch cfg.AppType {
	case config.AppTypeWorker:
		runWorker(server, coordinator, appLogger)
	default:
		runAPI(server, coordinator, appLogger)
	}
}

// runAPI serves HTTP; the cron scheduler stays off in this role.
func runAPI(server *app.Server, coordinator *shutdown.Coordinator, logger *zap.Logger) {
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			coordinator.Trigger("server-error", err)
		}
	}()

	coordinator.Listen()
}

// runWorker runs only the background scheduler.
func runWorker(server *app.Server, coordinator *shutdown.Coordinator, logger *zap.Logger) {
	logger.Info("Starting in worker role; HTTP surface disabled")
	if err := server.StartWorker(); err != nil {
		logger.Error("Worker scheduler failed to start", zap.Error(err))
		coordinator.Trigger("worker-error", err)
		return
	}

	coordinator.Listen()
}
