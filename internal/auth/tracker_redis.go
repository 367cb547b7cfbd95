package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptPrefix = "login_attempts:"

// RedisTracker keeps attempt state in a Redis hash per username so several API
// instances share one lockout view. Every failure renews the hash TTL to the window,
// so idle counters and lockouts expire on their own.
type RedisTracker struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewRedisTracker(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisTracker {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultLockWindow
	}

	return &RedisTracker{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (t *RedisTracker) WithClock(now func() time.Time) *RedisTracker {
	t.now = now
	return t
}

func (t *RedisTracker) Check(ctx context.Context, username string) (*Lockout, error) {
	key := loginAttemptPrefix + username

	raw, err := t.client.HGet(ctx, key, "locked_until").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read lockout: %w", err)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lockout: %w", err)
	}

	now := t.now()
	until := time.UnixMilli(millis).UTC()
	if !now.Before(until) {
		if err := t.client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("delete expired lockout: %w", err)
		}
		return nil, nil
	}

	return &Lockout{Until: until, Remaining: until.Sub(now)}, nil
}

func (t *RedisTracker) RecordFailure(ctx context.Context, username string) (*Lockout, error) {
	existing, err := t.Check(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	key := loginAttemptPrefix + username
	var incr *redis.IntCmd
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "failures", 1)
		pipe.PExpire(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment failed attempts: %w", err)
	}
	failures := incr.Val()
	if failures < int64(t.maxAttempts) {
		return nil, nil
	}

	until := t.now().Add(t.window)
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "locked_until", until.UnixMilli())
		pipe.PExpire(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set lockout: %w", err)
	}

	return &Lockout{Until: until, Remaining: t.window}, nil
}

func (t *RedisTracker) Clear(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, loginAttemptPrefix+username).Err(); err != nil {
		return fmt.Errorf("clear login attempts: %w", err)
	}
	return nil
}

// Prune is a no-op: every attempt hash carries a TTL.
func (t *RedisTracker) Prune(context.Context) (int, error) {
	return 0, nil
}

func (t *RedisTracker) Failures(ctx context.Context, username string) (int, error) {
	raw, err := t.client.HGet(ctx, loginAttemptPrefix+username, "failures").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read failed attempts: %w", err)
	}
	return strconv.Atoi(raw)
}
