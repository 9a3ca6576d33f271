// Package ratelimit throttles failed logins with fixed-window counters in
// Redis, one per email and one per client IP.
//
// Keys:
//   - sa:le:<email> failed logins for an account
//   - sa:li:<ip>    failed logins from a client address
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis failure. Callers decide whether to
// fail open.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Limiter implements users.LoginLimiter.
type Limiter struct {
	redis       redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

func New(client redis.UniversalClient, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		redis:       client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return client, nil
}

// Allow returns common.ErrRateLimited once either counter has reached the
// attempt budget for the current window.
func (l *Limiter) Allow(ctx context.Context, email, ip string) error {
	for _, key := range keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.maxAttempts) {
			return common.ErrRateLimited
		}
	}
	return nil
}

// Fail records a failed attempt. It returns common.ErrRateLimited when this
// attempt spent the last of the budget.
func (l *Limiter) Fail(ctx context.Context, email, ip string) error {
	limited := false
	for _, key := range keys(email, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.maxAttempts) {
			limited = true
		}
	}
	if limited {
		return common.ErrRateLimited
	}
	return nil
}

// Reset clears both counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, email, ip string) error {
	if err := l.redis.Del(ctx, keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// the window starts at the first failure
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

func keys(email, ip string) []string {
	k := []string{"sa:le:" + email}
	if ip != "" {
		k = append(k, "sa:li:"+ip)
	}
	return k
}
