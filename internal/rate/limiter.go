package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds throttle tuning parameters.
type Config struct {
	EnableIPThrottle   bool
	MaxIssueAttempts   int
	IssueWindow        time.Duration
	MaxRefreshAttempts int
	RefreshWindow      time.Duration
}

// Limiter enforces per-user, per-IP, and per-token rate limits for issuance
// and refresh using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue counts an issuance attempt for the user+IP pair and reports
// whether the budget is exceeded.
func (l *Limiter) CheckIssue(ctx context.Context, userID, ip string) error {
	count, err := l.incrementWithTTL(ctx, issueUserKey(userID), l.config.IssueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxIssueAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, issueIPKey(ip), l.config.IssueWindow)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxIssueAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// CheckRefresh counts a refresh attempt against the presented token's
// fingerprint. The fingerprint keeps the raw value out of Redis.
func (l *Limiter) CheckRefresh(ctx context.Context, fingerprint string) error {
	count, err := l.incrementWithTTL(ctx, refreshKey(fingerprint), l.config.RefreshWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func issueUserKey(userID string) string { return "ci:" + userID }
func issueIPKey(ip string) string       { return "cii:" + ip }
func refreshKey(fp string) string       { return "cr:" + fp }
