package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "taskhub:"
	redisVersionPrefix = "taskhub:v:"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore shares cached values across API replicas. Backend errors are
// logged and behave as misses so the database stays authoritative.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(opts RedisOptions, ttl time.Duration) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   1,
	}), ttl)
}

// NewRedisStoreFromClient wraps an existing go-redis client.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}

	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) {
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, val, s.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

// Version counters carry no TTL; they are shared by every replica.
func (s *RedisStore) Version(ctx context.Context, key string) (int64, bool) {
	v, err := s.rdb.Get(ctx, redisVersionPrefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		slog.Default().WarnContext(ctx, "cache version read failed", "key", key, "err", err)
		return 0, false
	}

	return v, true
}

func (s *RedisStore) Bump(ctx context.Context, key string) {
	if err := s.rdb.Incr(ctx, redisVersionPrefix+key).Err(); err != nil {
		slog.Default().WarnContext(ctx, "cache version bump failed", "key", key, "err", err)
	}
}
