package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// LocalLimiter 进程内按 key 的令牌桶，Redis 不可用或被关闭时兜底。
type LocalLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.rps, l.burst)
	l.limiters[key] = lim
	return lim
}

// Allow 不阻塞，超限直接返回 false。
func (l *LocalLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}
