// File: internal/platform/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"engla_backend/internal/config"
)

// NewClient constructs the process-wide Redis handle. Like the database pool
// it is created once at startup and shared by all requests.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// HealthCheck verifies the Redis connection is alive.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("redis responded with %q instead of PONG", pong)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
