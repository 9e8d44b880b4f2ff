package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotHeld = errors.New("submit lock not held")

// 只删除自己持有的锁，避免 TTL 过期后误删别人的锁。
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitLock 每个用户同一时间只允许一个提交在进行中。
type SubmitLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmitLock(client *redis.Client, ttl time.Duration) *SubmitLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SubmitLock{client: client, ttl: ttl}
}

func lockKey(userID int64) string {
	return "submit:lock:" + strconv.FormatInt(userID, 10)
}

// Acquire 成功返回 token 和 true；已有提交在进行中返回 "", false。
func (l *SubmitLock) Acquire(ctx context.Context, userID int64) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(userID), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *SubmitLock) Release(ctx context.Context, userID int64, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{lockKey(userID)}, token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Held 只读查询，供预览展示“正在提交”。
func (l *SubmitLock) Held(ctx context.Context, userID int64) (bool, error) {
	n, err := l.client.Exists(ctx, lockKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
