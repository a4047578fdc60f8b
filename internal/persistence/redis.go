package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
)

// Redis wraps the go-redis client. Used for inbound interaction
// deduplication; the service degrades gracefully when unreachable.
type Redis struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, logger: logger}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// ClaimInteraction records an interaction id and reports whether this is the
// first delivery. Gateways redeliver webhooks; a second delivery within the
// TTL is dropped. When Redis is unreachable the claim succeeds so a cache
// outage never blocks interaction handling.
func (r *Redis) ClaimInteraction(ctx context.Context, interactionID string, ttl time.Duration) bool {
	if r == nil || r.Client == nil || interactionID == "" {
		return true
	}
	first, err := r.Client.SetNX(ctx, "interaction:"+interactionID, 1, ttl).Result()
	if err != nil {
		r.logger.Warn("interaction dedup unavailable", zap.Error(err))
		return true
	}
	return first
}
