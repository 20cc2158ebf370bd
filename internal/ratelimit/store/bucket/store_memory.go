package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"classreg/internal/ratelimit/models"
)

// InMemoryBucketStore is a sliding-window limiter keyed by string. It is
// process-local; replicas each keep their own windows.
type InMemoryBucketStore struct {
	mu         sync.Mutex
	buckets    map[string]*slidingWindow
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

const defaultSweepInterval = time.Minute

// slidingWindow tracks request timestamps inside the window so bursts at a
// fixed-window boundary cannot double the limit.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

type Option func(*InMemoryBucketStore)

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryBucketStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepInterval sets how often idle buckets are evicted.
func WithSweepInterval(d time.Duration) Option {
	return func(s *InMemoryBucketStore) {
		if d > 0 {
			s.sweepEvery = d
		}
	}
}

// NewInMemoryBucketStore creates a new in-memory bucket store.
func NewInMemoryBucketStore(opts ...Option) *InMemoryBucketStore {
	s := &InMemoryBucketStore{
		buckets:    make(map[string]*slidingWindow),
		now:        time.Now,
		sweepEvery: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

// Allow checks if a request is allowed and records it when it is.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN is Allow for a request that costs several slots.
func (s *InMemoryBucketStore) AllowN(_ context.Context, key string, cost int, limit int, window time.Duration) (*models.RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	sw := s.getOrCreateBucket(key, window)
	sw.cleanup(now)

	if len(sw.timestamps)+cost <= limit {
		for range cost {
			sw.timestamps = append(sw.timestamps, now)
		}
		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - len(sw.timestamps),
			ResetAt:   sw.timestamps[0].Add(window),
		}, nil
	}

	resetAt := now.Add(window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(window)
	}
	return &models.RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: int(math.Ceil(resetAt.Sub(now).Seconds())),
	}, nil
}

// Reset clears the window for key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// GetCurrentCount returns the number of requests inside the window for key.
func (s *InMemoryBucketStore) GetCurrentCount(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.buckets[key]
	if sw == nil {
		return 0, nil
	}
	sw.cleanup(s.now())
	if len(sw.timestamps) == 0 {
		delete(s.buckets, key)
	}
	return len(sw.timestamps), nil
}

// cleanup drops timestamps that fell out of the window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Len returns the number of buckets currently held.
func (s *InMemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// sweep evicts buckets whose window has emptied, at most once per
// sweepEvery. Must be called while holding s.mu.
func (s *InMemoryBucketStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepEvery {
		return
	}
	s.lastSweep = now
	for key, sw := range s.buckets {
		sw.cleanup(now)
		if len(sw.timestamps) == 0 {
			delete(s.buckets, key)
		}
	}
}

// getOrCreateBucket must be called while holding s.mu.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, window time.Duration) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{window: window}
	s.buckets[key] = sw
	return sw
}
