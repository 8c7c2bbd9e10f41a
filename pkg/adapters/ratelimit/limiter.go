// Package ratelimit implements a fixed-window request limiter with pluggable
// counter stores: in-process memory or a shared Redis.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key within a fixed window.
type Store interface {
	// Hit records one request for key and returns the count so far in the
	// current window and when that window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// Result describes the caller's standing after one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
}

func New(store Store, limit int, window time.Duration, prefix string) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, prefix: prefix}
}

func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Hit(ctx, l.prefix+key, l.window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
