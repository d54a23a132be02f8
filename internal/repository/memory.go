package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the in-process fallback when redis is unavailable.
type MemoryLimiter struct {
	mu         sync.Mutex
	rateLimits map[int64]*rateLimitEntry
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{rateLimits: make(map[int64]*rateLimitEntry)}
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryLimiter) CheckRateLimit(ctx context.Context, tenantID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.rateLimits[tenantID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		r.rateLimits[tenantID] = entry
		return limit >= 1, nil
	}

	entry.count++
	return entry.count <= limit, nil
}
