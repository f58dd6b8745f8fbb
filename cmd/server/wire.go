// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"engla_backend/internal/app"
	"engla_backend/internal/auth"
	"engla_backend/internal/config"
	"engla_backend/internal/filestorage"
	"engla_backend/internal/jobs"
	"engla_backend/internal/platform/cache"
	"engla_backend/internal/platform/database"
	"engla_backend/internal/platform/logger"
	"engla_backend/internal/user"
	"engla_backend/internal/webhook"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform layer
		logger.New,
		database.NewGORM,
		cache.NewClient,

		// Identity verification
		auth.NewJWKSVerifier,
		wire.Bind(new(auth.Verifier), new(*auth.JWKSVerifier)),

		// User module
		user.NewGORMRepository,
		filestorage.NewService,
		user.NewService,
		user.NewHandler,

		// Authentication module
		auth.NewService,
		auth.NewHandler,

		// Webhooks
		webhook.NewHandler,

		// Background jobs
		jobs.NewUserCleanupJob,

		// Application layer
		app.NewServer,
	)
	return nil, nil, nil
}
