package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/pkg/model"
)

// RedisStore is a Store backed by Redis, for deployments with more than one
// service instance. TTL is enforced by the server. Redis failures degrade to
// cache misses so an unavailable cache never blocks validation.
type RedisStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb, logger: logger}, nil
}

// NewRedisStoreWithClient wraps an existing client (used with miniredis in tests).
func NewRedisStoreWithClient(rdb *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, resourceType, resourceName string) (model.ValidationResult, bool) {
	key := Key(resourceType, resourceName)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache.redis_get_failed", zap.String("key", key), zap.Error(err))
		}
		return model.ValidationResult{}, false
	}

	var result model.ValidationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("cache.redis_decode_failed", zap.String("key", key), zap.Error(err))
		return model.ValidationResult{}, false
	}
	return result, true
}

func (s *RedisStore) Set(ctx context.Context, resourceType, resourceName string, result model.ValidationResult, ttl time.Duration) {
	key := Key(resourceType, resourceName)
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("cache.redis_encode_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Warn("cache.redis_set_failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll deletes every key under KeyPrefix with a cursor scan, so the
// wipe does not block the server the way KEYS would.
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan validation keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete validation keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Client exposes the underlying connection for co-located stores.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Close releases the underlying connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
