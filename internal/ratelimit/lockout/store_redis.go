package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares lockout state across gateway replicas. Failure counters
// live under one key with the window as TTL; hard locks under another with
// the lock duration as TTL, so Redis expires both without a sweeper.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func failuresKey(key string) string { return "lockout:failures:" + key }
func lockKey(key string) string     { return "lockout:lock:" + key }

func (s *RedisStore) AddFailure(ctx context.Context, key string, window time.Duration) (Record, error) {
	fk := failuresKey(key)

	count, err := s.client.Incr(ctx, fk).Result()
	if err != nil {
		return Record{}, fmt.Errorf("incr %s: %w", fk, err)
	}
	// First failure opens the window; later failures ride the existing TTL.
	if count == 1 {
		if err := s.client.Expire(ctx, fk, window).Err(); err != nil {
			return Record{}, fmt.Errorf("expire %s: %w", fk, err)
		}
	}

	lockedUntil, err := s.lockedUntil(ctx, key)
	if err != nil {
		return Record{}, err
	}
	return Record{Failures: int(count), LockedUntil: lockedUntil}, nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, lockKey(key), until.Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", lockKey(key), err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	count, err := s.client.Get(ctx, failuresKey(key)).Int()
	if err != nil && err != redis.Nil {
		return Record{}, fmt.Errorf("get %s: %w", failuresKey(key), err)
	}

	lockedUntil, err := s.lockedUntil(ctx, key)
	if err != nil {
		return Record{}, err
	}
	return Record{Failures: count, LockedUntil: lockedUntil}, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failuresKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("del lockout keys: %w", err)
	}
	return nil
}

func (s *RedisStore) lockedUntil(ctx context.Context, key string) (time.Time, error) {
	raw, err := s.client.Get(ctx, lockKey(key)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get %s: %w", lockKey(key), err)
	}

	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// Unparseable values are treated as unlocked; the TTL still bounds
		// how long the bad value can linger.
		return time.Time{}, nil
	}
	return until, nil
}
