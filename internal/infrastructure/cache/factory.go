// Package cache provides the Redis client and the read caches built on it,
// with in-memory fallbacks for single-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/config"
)

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Factory picks Redis-backed or in-memory implementations depending on
// whether a Redis client is available
type Factory struct {
	client *redis.Client
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithRedisClient makes the factory produce Redis-backed caches
func WithRedisClient(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFactoryFromConfig connects to Redis when it is configured. A connection
// failure is logged and the factory falls back to in-memory caches.
func NewFactoryFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Factory {
	f := NewFactory(WithLogger(logger))
	if !cfg.RedisEnabled() {
		logger.Info("Redis not configured, using in-memory caches")
		return f
	}

	client, err := NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory caches. "+
			"Token revocations will not be shared between instances.",
			zap.Error(err),
		)
		return f
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	f.client = client
	return f
}

// Client returns the Redis client, or nil when running in-memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// ActivityCache creates the activity catalogue cache
func (f *Factory) ActivityCache(ttl time.Duration) ActivityCache {
	if f.client != nil {
		return NewRedisActivityCache(f.client, ttl, f.logger)
	}
	return NewInMemoryActivityCache(ttl)
}

// TokenBlacklist creates the access token blacklist
func (f *Factory) TokenBlacklist() auth.TokenBlacklist {
	if f.client != nil {
		return auth.NewRedisTokenBlacklist(f.client)
	}
	return auth.NewInMemoryTokenBlacklist()
}

// Close releases the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
