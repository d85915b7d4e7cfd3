package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/atlas-maximus/internal/types"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a cached snapshot is served.
const DefaultCacheTTL = 10 * time.Minute

// Cache stores generated snapshots by request key.
type Cache interface {
	Get(ctx context.Context, key string) (*types.Snapshot, bool, error)
	Set(ctx context.Context, key string, snapshot *types.Snapshot) error
}

// CacheKey identifies a snapshot request by type, window and scope.
func CacheKey(snapshotType types.SnapshotType, scope Scope) string {
	return fmt.Sprintf("atlas:snapshot:%s:%s:%s:user-%s:team-%s",
		snapshotType,
		scope.Start.UTC().Format(time.RFC3339),
		scope.End.UTC().Format(time.RFC3339),
		scope.UserID,
		scope.TeamID,
	)
}

// RedisCache is a Cache backed by Redis string keys with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A non-positive ttl uses DefaultCacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// TTL is how long entries written by Set live.
func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}

// ConnectRedis parses a redis:// URL, connects and pings.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Get returns the cached snapshot, or false when the key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) (*types.Snapshot, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// Set stores a snapshot under key for the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, snapshot *types.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
