package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptsPrefix = "lockout:att:"
	lockPrefix     = "lockout:lock:"
)

// RedisStore keeps attempt counters in Redis so lockouts hold across
// restarts and replicas.
type RedisStore struct {
	client      *redis.Client
	maxAttempts int
	lockout     time.Duration
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client, maxAttempts int, lockout time.Duration) *RedisStore {
	return &RedisStore{client: client, maxAttempts: maxAttempts, lockout: lockout}
}

func (s *RedisStore) CheckLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, lockPrefix+key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("lockout: check: %w", err)
	}
	if ttl > 0 {
		return true, ttl, nil
	}
	return false, 0, nil
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string) (time.Time, error) {
	ttl, err := s.client.PTTL(ctx, lockPrefix+key).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("lockout: record: %w", err)
	}
	if ttl > 0 {
		return time.Now().Add(ttl), nil
	}
	count, err := s.client.Incr(ctx, attemptsPrefix+key).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("lockout: record: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, attemptsPrefix+key, attemptMemory(s.lockout)).Err(); err != nil {
			return time.Time{}, fmt.Errorf("lockout: record: %w", err)
		}
	}
	if count >= int64(s.maxAttempts) {
		if err := s.client.Set(ctx, lockPrefix+key, "1", s.lockout).Err(); err != nil {
			return time.Time{}, fmt.Errorf("lockout: record: %w", err)
		}
		if err := s.client.Del(ctx, attemptsPrefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return time.Time{}, fmt.Errorf("lockout: record: %w", err)
		}
		return time.Now().Add(s.lockout), nil
	}
	return time.Time{}, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, attemptsPrefix+key, lockPrefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lockout: clear: %w", err)
	}
	return nil
}
