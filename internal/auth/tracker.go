package auth

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 15 * time.Minute
)

// Lockout describes an active lock on a username.
type Lockout struct {
	Until     time.Time
	Remaining time.Duration
}

func (l Lockout) RemainingMinutes() int {
	return ceilMinutes(l.Remaining)
}

func (l Lockout) Err() LockedError {
	return LockedError{Until: l.Until, Remaining: l.Remaining}
}

// AttemptTracker counts failed logins per claimed username and decides lockouts.
type AttemptTracker interface {
	// Check returns a non-nil Lockout while the username is locked.
	Check(ctx context.Context, username string) (*Lockout, error)
	// RecordFailure returns a non-nil Lockout when this failure triggered one.
	RecordFailure(ctx context.Context, username string) (*Lockout, error)
	Clear(ctx context.Context, username string) error
	// Prune drops expired lockouts and counters idle for a full window, and reports
	// how many were removed.
	Prune(ctx context.Context) (int, error)
}

type attemptState struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// stale reports whether an entry no longer affects any decision.
func (s *attemptState) stale(now time.Time, window time.Duration) bool {
	if !s.lockedUntil.IsZero() {
		return !now.Before(s.lockedUntil)
	}
	return now.Sub(s.lastFailure) >= window
}

type MemoryTracker struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	entries     map[string]*attemptState
}

func NewMemoryTracker(maxAttempts int, window time.Duration) *MemoryTracker {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultLockWindow
	}

	return &MemoryTracker{
		maxAttempts: maxAttempts,
		window:      window,
		now:         func() time.Time { return time.Now().UTC() },
		entries:     make(map[string]*attemptState),
	}
}

// WithClock replaces the time source.
func (t *MemoryTracker) WithClock(now func() time.Time) *MemoryTracker {
	t.now = now
	return t
}

func (t *MemoryTracker) Check(_ context.Context, username string) (*Lockout, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[username]
	if !ok || entry.lockedUntil.IsZero() {
		return nil, nil
	}
	if !now.Before(entry.lockedUntil) {
		delete(t.entries, username)
		return nil, nil
	}

	return &Lockout{Until: entry.lockedUntil, Remaining: entry.lockedUntil.Sub(now)}, nil
}

func (t *MemoryTracker) RecordFailure(_ context.Context, username string) (*Lockout, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[username]
	if !ok {
		entry = &attemptState{}
		t.entries[username] = entry
	}

	if !entry.lockedUntil.IsZero() && now.Before(entry.lockedUntil) {
		return &Lockout{Until: entry.lockedUntil, Remaining: entry.lockedUntil.Sub(now)}, nil
	}
	if entry.failures > 0 && entry.stale(now, t.window) {
		*entry = attemptState{}
	}

	entry.failures++
	entry.lastFailure = now
	if entry.failures < t.maxAttempts {
		return nil, nil
	}

	entry.lockedUntil = now.Add(t.window)
	return &Lockout{Until: entry.lockedUntil, Remaining: t.window}, nil
}

func (t *MemoryTracker) Clear(_ context.Context, username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, username)
	return nil
}

func (t *MemoryTracker) Prune(_ context.Context) (int, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, entry := range t.entries {
		if entry.stale(now, t.window) {
			delete(t.entries, key)
			removed++
		}
	}

	return removed, nil
}

// Failures reports the current counter for a username.
func (t *MemoryTracker) Failures(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.entries[username]; ok {
		return entry.failures
	}
	return 0
}
