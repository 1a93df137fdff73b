// internal/ratelimit/redis.go
package ratelimit

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreFromEnv returns a Redis-backed counter store when REDIS_ADDR is
// set, falling back to in-process counters otherwise. Configured but
// unreachable Redis is fatal.
func StoreFromEnv() CounterStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("⚠️ REDIS_ADDR not set, using in-memory rate limit counters")
		return NewMemoryStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect to Redis at %s: %v", addr, err)
	}
	log.Println("✅ Connected to Redis for rate limiting")
	return NewRedisStore(rdb, "sendcount")
}

// RedisStore shares send counters across worker processes. Keys are
// stamped with the hour/day they cover and expire on their own, so a
// crashed worker never leaves a stale ceiling behind.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sendcount"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) hourKey(t time.Time) string {
	return s.prefix + ":hourly:" + t.Format("2006010215")
}

func (s *RedisStore) dayKey(t time.Time) string {
	return s.prefix + ":daily:" + t.Format("20060102")
}

func (s *RedisStore) Counts(ctx context.Context) (int, int, error) {
	now := time.Now()
	hourly, err := s.rdb.Get(ctx, s.hourKey(now)).Int()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	daily, err := s.rdb.Get(ctx, s.dayKey(now)).Int()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return hourly, daily, nil
}

func (s *RedisStore) Increment(ctx context.Context) error {
	now := time.Now()
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, s.hourKey(now))
	pipe.Expire(ctx, s.hourKey(now), 2*time.Hour)
	pipe.Incr(ctx, s.dayKey(now))
	pipe.Expire(ctx, s.dayKey(now), 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
