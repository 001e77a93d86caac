// Package dedup remembers ingested message IDs so that redelivered mail is
// analyzed without being stored twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix namespaces dedup keys in Redis
const keyPrefix = "cybershield:seen:"

// RedisDeduplicator tracks seen message IDs in Redis keys with a TTL
type RedisDeduplicator struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDeduplicator creates a deduplicator backed by Redis and checks
// that the server is reachable
func NewRedisDeduplicator(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*RedisDeduplicator, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Info("Connected to redis deduplication backend", zap.String("address", addr), zap.Duration("ttl", ttl))
	return &RedisDeduplicator{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// IsNew reports whether messageID has not been seen before, marking it seen
// atomically
func (d *RedisDeduplicator) IsNew(ctx context.Context, messageID string) (bool, error) {
	set, err := d.rdb.SetNX(ctx, seenKey(messageID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}
	return set, nil
}

// seenKey builds the Redis key for a message ID
func seenKey(messageID string) string {
	return keyPrefix + messageID
}

// Stop closes the Redis client
func (d *RedisDeduplicator) Stop() {
	if err := d.rdb.Close(); err != nil {
		d.logger.Error("Failed to close redis client", zap.Error(err))
	}
}
