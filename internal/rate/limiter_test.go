package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, cfg), mr
}

func TestCheckIssueWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		MaxIssueAttempts: 3,
		IssueWindow:      time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckIssue(ctx, "user-1", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
	}
	if err := l.CheckIssue(ctx, "user-1", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("fourth attempt should be limited, got %v", err)
	}

	// A different user has an independent budget.
	if err := l.CheckIssue(ctx, "user-2", "10.0.0.1"); err != nil {
		t.Fatalf("other user should pass: %v", err)
	}
}

func TestCheckIssuePerIPThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxIssueAttempts: 2,
		IssueWindow:      time.Minute,
	})
	ctx := context.Background()

	// Different users from the same address share the IP counter.
	if err := l.CheckIssue(ctx, "user-1", "10.0.0.1"); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	if err := l.CheckIssue(ctx, "user-2", "10.0.0.1"); err != nil {
		t.Fatalf("second attempt should pass: %v", err)
	}
	if err := l.CheckIssue(ctx, "user-3", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third address hit should be limited, got %v", err)
	}
}

func TestCheckRefreshWindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, Config{
		MaxRefreshAttempts: 1,
		RefreshWindow:      time.Minute,
	})
	ctx := context.Background()

	if err := l.CheckRefresh(ctx, "fp-1"); err != nil {
		t.Fatalf("first refresh should pass: %v", err)
	}
	if err := l.CheckRefresh(ctx, "fp-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second refresh in window should be limited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckRefresh(ctx, "fp-1"); err != nil {
		t.Fatalf("refresh after window expiry should pass: %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t, Config{
		MaxIssueAttempts: 1,
		IssueWindow:      time.Minute,
	})
	mr.Close()

	if err := l.CheckIssue(context.Background(), "user-1", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
