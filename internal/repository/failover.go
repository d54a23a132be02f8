package repository

import (
	"context"
	"sync/atomic"
	"time"

	"rentease/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLimiter prefers the redis limiter and falls back to memory when it
// errors, retrying the primary after a cooldown.
type FailoverLimiter struct {
	primary   domain.RequestLimiter
	fallback  domain.RequestLimiter
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverLimiter(primary, fallback domain.RequestLimiter, logger *zerolog.Logger) *FailoverLimiter {
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverLimiter) CheckRateLimit(ctx context.Context, tenantID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, tenantID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("primary limiter failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck.Store(time.Now().UnixNano())
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute {
		allowed, err := r.primary.CheckRateLimit(ctx, tenantID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.CheckRateLimit(ctx, tenantID, limit, window)
}
