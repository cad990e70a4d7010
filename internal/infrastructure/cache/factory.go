package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/config"
)

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewStore picks the request cache backend. client may be nil for "memory".
func NewStore(cfg config.CacheConfig, client redis.UniversalClient) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("cache backend redis requires redis.enabled")
		}
		return NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// NewIdempotencyStore returns the Redis store when a client is available,
// otherwise an in-memory store with a warning.
func NewIdempotencyStore(client redis.UniversalClient, keyPrefix string, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, keyPrefix+"idempotency:")
	}
	logger.Warn("Redis disabled, using in-memory idempotency store; duplicate callbacks are only detected per instance")
	return NewInMemoryIdempotencyStore(5 * time.Minute)
}
