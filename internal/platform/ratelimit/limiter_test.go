package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	platformcache "urlindex.local/internal/platform/cache"
)

func TestLimiterWithoutRedisUsesFallback(t *testing.T) {
	l := NewLimiter(nil).WithFallback(NewLocalLimiter(0, 2))

	for i := 0; i < 2; i++ {
		allowed, _, err := l.Allow(context.Background(), "k", 100, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, _, _ := l.Allow(context.Background(), "k", 100, time.Minute)
	if allowed {
		t.Fatal("expected local fallback to deny after burst")
	}
}

func TestLimiterWithoutFallbackPasses(t *testing.T) {
	l := NewLimiter(nil)
	if !l.Fallback("any") {
		t.Fatal("limiter without fallback should pass")
	}
}

func TestLimiterSlidingWindow(t *testing.T) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client, err := platformcache.NewRedisClient(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("skip: redis not available at %s: %v", redisAddr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewLimiter(client)

	key := fmt.Sprintf("test:rl:%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = client.Del(ctx, key).Err()
	})

	window := 2 * time.Second
	limit := 3

	callAllow := func() (bool, time.Duration) {
		ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()

		allowed, retryAfter, err := limiter.Allow(ctx, key, limit, window)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		return allowed, retryAfter
	}

	// 前 limit 次应放行
	for i := 0; i < limit; i++ {
		allowed, _ := callAllow()
		if !allowed {
			t.Fatalf("expected allowed at attempt %d", i+1)
		}
	}

	// 第 limit+1 次应被拒绝
	allowed, retryAfter := callAllow()
	if allowed {
		t.Fatalf("expected denied at attempt %d", limit+1)
	}
	if retryAfter <= 0 || retryAfter > window {
		t.Fatalf("unexpected retryAfter: %v (window=%v)", retryAfter, window)
	}

	time.Sleep(retryAfter + 200*time.Millisecond)
	allowed, _ = callAllow()
	if !allowed {
		t.Fatalf("expected allowed after waiting, retryAfter=%v", retryAfter)
	}
}
