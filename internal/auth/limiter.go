package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// ErrTooManyAttempts is returned when a client exceeds the unlock attempt rate.
var ErrTooManyAttempts = errors.New("too many unlock attempts")

// AttemptLimiter bounds unlock attempts per client key.
type AttemptLimiter struct {
	limiter *limiter.Limiter
}

// NewAttemptLimiter allows perMinute attempts per key using store. A nil
// store keeps counters in memory.
func NewAttemptLimiter(store limiter.Store, perMinute int) *AttemptLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	if perMinute <= 0 {
		perMinute = 5
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	return &AttemptLimiter{limiter: limiter.New(store, rate)}
}

// Allow records an attempt for key and returns ErrTooManyAttempts once the
// limit is exceeded.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) error {
	res, err := l.limiter.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check attempt limit: %w", err)
	}
	if res.Reached {
		return ErrTooManyAttempts
	}
	return nil
}

// Reset clears the attempts recorded for key.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if _, err := l.limiter.Reset(ctx, key); err != nil {
		return fmt.Errorf("failed to reset attempt limit: %w", err)
	}
	return nil
}
