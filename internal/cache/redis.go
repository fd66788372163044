package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
)

const (
	latestKeyPrefix = "depth:latest:"
	recentKey       = "depth:recent"
	maxRecent       = 100
)

// ErrNotFound is returned when no snapshot exists for a pair and direction
var ErrNotFound = errors.New("snapshot not found")

// RedisCache keeps the latest snapshot per pair/direction plus a capped list
// of recent snapshots, and fans completed snapshots out over Pub/Sub.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCache connects to redis. ttl bounds how long a latest-snapshot
// entry stays valid; zero means no expiry.
func NewRedisCache(addr string, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), ttl, logger)
}

// NewRedisCacheFromClient wraps an existing client so callers can share one
// connection pool with other redis-backed components.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// SetSnapshot stores the snapshot as the latest for its pair/direction and
// pushes it onto the recent list
func (r *RedisCache) SetSnapshot(ctx context.Context, snap *models.DepthSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, latestKeyPrefix+snap.Key(), data, r.ttl)
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, maxRecent-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves the latest snapshot for a pair and direction
func (r *RedisCache) GetSnapshot(ctx context.Context, inputMint, outputMint, direction string) (*models.DepthSnapshot, error) {
	key := fmt.Sprintf("%s%s:%s:%s", latestKeyPrefix, inputMint, outputMint, direction)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap models.DepthSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// RecentSnapshots returns up to limit of the most recently stored snapshots,
// newest first
func (r *RedisCache) RecentSnapshots(ctx context.Context, limit int64) ([]*models.DepthSnapshot, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	vals, err := r.client.LRange(ctx, recentKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", err)
	}

	out := make([]*models.DepthSnapshot, 0, len(vals))
	for _, v := range vals {
		var snap models.DepthSnapshot
		if err := json.Unmarshal([]byte(v), &snap); err != nil {
			r.logger.WithError(err).Warn("skipping corrupt snapshot entry")
			continue
		}
		out = append(out, &snap)
	}
	return out, nil
}

// Ping checks the redis connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
