package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTrackerForTest(t *testing.T, clock *fakeClock) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisTracker(client, 3, 10*time.Minute).WithClock(clock.Now), server
}

type trackerFactory func(t *testing.T, clock *fakeClock) AttemptTracker

func trackers() map[string]trackerFactory {
	return map[string]trackerFactory{
		"memory": func(_ *testing.T, clock *fakeClock) AttemptTracker {
			return NewMemoryTracker(3, 10*time.Minute).WithClock(clock.Now)
		},
		"redis": func(t *testing.T, clock *fakeClock) AttemptTracker {
			tracker, _ := newRedisTrackerForTest(t, clock)
			return tracker
		},
	}
}

func TestTrackerLocksAtThreshold(t *testing.T) {
	for name, build := range trackers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			tracker := build(t, clock)

			for i := 0; i < 2; i++ {
				lockout, err := tracker.RecordFailure(ctx, "alice")
				require.NoError(t, err)
				assert.Nil(t, lockout)
			}

			lockout, err := tracker.Check(ctx, "alice")
			require.NoError(t, err)
			assert.Nil(t, lockout)

			lockout, err = tracker.RecordFailure(ctx, "alice")
			require.NoError(t, err)
			require.NotNil(t, lockout)
			assert.Equal(t, 10, lockout.RemainingMinutes())
			assert.Equal(t, clock.Now().Add(10*time.Minute).UnixMilli(), lockout.Until.UnixMilli())

			clock.Advance(4*time.Minute + 30*time.Second)
			lockout, err = tracker.Check(ctx, "alice")
			require.NoError(t, err)
			require.NotNil(t, lockout)
			assert.Equal(t, 6, lockout.RemainingMinutes())

			other, err := tracker.Check(ctx, "bob")
			require.NoError(t, err)
			assert.Nil(t, other)
		})
	}
}

func TestTrackerExpiredLockoutResetsCounter(t *testing.T) {
	for name, build := range trackers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			tracker := build(t, clock)

			for i := 0; i < 3; i++ {
				_, err := tracker.RecordFailure(ctx, "alice")
				require.NoError(t, err)
			}

			clock.Advance(10 * time.Minute)
			lockout, err := tracker.Check(ctx, "alice")
			require.NoError(t, err)
			assert.Nil(t, lockout)

			lockout, err = tracker.RecordFailure(ctx, "alice")
			require.NoError(t, err)
			assert.Nil(t, lockout, "counter restarts after the lockout expires")
		})
	}
}

func TestTrackerClear(t *testing.T) {
	for name, build := range trackers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			tracker := build(t, clock)

			for i := 0; i < 2; i++ {
				_, err := tracker.RecordFailure(ctx, "alice")
				require.NoError(t, err)
			}
			require.NoError(t, tracker.Clear(ctx, "alice"))

			for i := 0; i < 2; i++ {
				lockout, err := tracker.RecordFailure(ctx, "alice")
				require.NoError(t, err)
				assert.Nil(t, lockout)
			}
		})
	}
}

func TestMemoryTrackerPrune(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := NewMemoryTracker(1, time.Minute).WithClock(clock.Now)

	_, err := tracker.RecordFailure(ctx, "alice")
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	_, err = tracker.RecordFailure(ctx, "bob")
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	removed, err := tracker.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, tracker.Failures("alice"))
	assert.Equal(t, 1, tracker.Failures("bob"))
}

func TestMemoryTrackerPruneDropsIdleCounters(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := NewMemoryTracker(5, 10*time.Minute).WithClock(clock.Now)

	for i := 0; i < 1000; i++ {
		_, err := tracker.RecordFailure(ctx, fmt.Sprintf("ghost-%d", i))
		require.NoError(t, err)
	}
	clock.Advance(5 * time.Minute)
	_, err := tracker.RecordFailure(ctx, "alice")
	require.NoError(t, err)

	removed, err := tracker.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	clock.Advance(5 * time.Minute)
	removed, err = tracker.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, removed)
	assert.Equal(t, 1, tracker.Failures("alice"))
	assert.Zero(t, tracker.Failures("ghost-0"))
}

func TestTrackerIdleCounterRestarts(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		clock := newFakeClock()
		tracker := NewMemoryTracker(3, 10*time.Minute).WithClock(clock.Now)

		for i := 0; i < 2; i++ {
			_, err := tracker.RecordFailure(ctx, "alice")
			require.NoError(t, err)
		}
		clock.Advance(10 * time.Minute)

		lockout, err := tracker.RecordFailure(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, lockout, "idle counter restarts after a full window")
		assert.Equal(t, 1, tracker.Failures("alice"))
	})

	t.Run("redis", func(t *testing.T) {
		clock := newFakeClock()
		tracker, server := newRedisTrackerForTest(t, clock)

		for i := 0; i < 2; i++ {
			_, err := tracker.RecordFailure(ctx, "alice")
			require.NoError(t, err)
		}
		clock.Advance(10 * time.Minute)
		server.FastForward(10 * time.Minute)

		lockout, err := tracker.RecordFailure(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, lockout, "idle counter restarts after a full window")

		failures, err := tracker.Failures(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, failures)
	})
}

func TestRedisTrackerFirstFailureSetsTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker, server := newRedisTrackerForTest(t, clock)

	_, err := tracker.RecordFailure(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, server.TTL(loginAttemptPrefix+"ghost"))

	server.FastForward(10 * time.Minute)
	assert.False(t, server.Exists(loginAttemptPrefix+"ghost"))
}

func TestRedisTrackerKeyExpiresWithLockout(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker, server := newRedisTrackerForTest(t, clock)

	for i := 0; i < 3; i++ {
		_, err := tracker.RecordFailure(ctx, "alice")
		require.NoError(t, err)
	}

	failures, err := tracker.Failures(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, failures)
	assert.Equal(t, 10*time.Minute, server.TTL(loginAttemptPrefix+"alice"))

	server.FastForward(10 * time.Minute)
	assert.False(t, server.Exists(loginAttemptPrefix+"alice"))

	failures, err = tracker.Failures(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, failures)
}
