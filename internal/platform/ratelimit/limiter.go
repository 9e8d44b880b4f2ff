package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter Redis 有序集合滑动窗口；Redis 不可用时交给 LocalLimiter。
type Limiter struct {
	client   *redis.Client
	fallback *LocalLimiter
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// WithFallback 设置 Redis 故障时使用的进程内限流器。
func (l *Limiter) WithFallback(local *LocalLimiter) *Limiter {
	l.fallback = local
	return l
}

// Fallback Redis 出错时的兜底判断；没有配置兜底则放行。
func (l *Limiter) Fallback(key string) bool {
	if l.fallback == nil {
		return true
	}
	return l.fallback.Allow(key)
}

// 返回 {allowed, retryAfterMs}。超限的请求不留在窗口里。
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, 0}
end

redis.call("ZREM", key, member)

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  local retryAfter = (tonumber(oldest[2]) + window) - now
  if retryAfter < 0 then retryAfter = 0 end
  return {0, retryAfter}
end
return {0, window}
`)

// Allow 返回：allowed、retryAfter（仅当超限时有意义）。
// 每次调用用一个 uuid 做 member，同一毫秒的并发请求也不会互相覆盖。
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return l.Fallback(key), 0, nil
	}
	res, err := slidingWindow.Run(ctx, l.client, []string{key},
		time.Now().UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Result()
	if err != nil {
		return false, 0, err
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("unexpected redis eval result: %T %v", res, res)
	}

	allowed, _ := arr[0].(int64)
	var retryAfterMs int64
	switch v := arr[1].(type) {
	case int64:
		retryAfterMs = v
	case string:
		retryAfterMs, _ = strconv.ParseInt(v, 10, 64)
	}
	return allowed == 1, time.Duration(retryAfterMs) * time.Millisecond, nil
}
