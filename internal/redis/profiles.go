package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProfileCache keeps subject → nickname lookups out of PostgreSQL on the
// hot path of every player action.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProfileCache connects to Redis and verifies the connection
func NewProfileCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*ProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewProfileCacheFromClient(client, ttl, logger), nil
}

// NewProfileCacheFromClient wraps an existing client
func NewProfileCacheFromClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProfileCache {
	return &ProfileCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Close closes the Redis connection
func (c *ProfileCache) Close() error {
	return c.client.Close()
}

// Ping checks Redis is reachable
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// playerInfoKey returns the Redis key for player info cache
func (c *ProfileCache) playerInfoKey(subject string) string {
	return fmt.Sprintf("player:%s:info", subject)
}

// SetPlayerInfo caches player information
func (c *ProfileCache) SetPlayerInfo(ctx context.Context, info domain.PlayerInfo) error {
	key := c.playerInfoKey(info.Subject)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, "nickname", info.Nickname)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting player info: %w", err)
	}
	return nil
}

// GetPlayerInfo retrieves cached player information
func (c *ProfileCache) GetPlayerInfo(ctx context.Context, subject string) (*domain.PlayerInfo, error) {
	key := c.playerInfoKey(subject)
	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player info: %w", err)
	}

	if len(result) == 0 {
		return nil, domain.ErrUnknownPlayer
	}

	return &domain.PlayerInfo{
		Subject:  subject,
		Nickname: result["nickname"],
	}, nil
}

// BatchSetPlayerInfo caches many profiles using pipelining
func (c *ProfileCache) BatchSetPlayerInfo(ctx context.Context, infos []domain.PlayerInfo) error {
	if len(infos) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()

	for _, info := range infos {
		key := c.playerInfoKey(info.Subject)
		pipe.HSet(ctx, key, "nickname", info.Nickname)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("batch setting player info: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for subject
func (c *ProfileCache) Invalidate(ctx context.Context, subject string) error {
	if err := c.client.Del(ctx, c.playerInfoKey(subject)).Err(); err != nil {
		return fmt.Errorf("invalidating player info: %w", err)
	}
	return nil
}
