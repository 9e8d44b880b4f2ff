package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/platform/metrics"
)

// BalanceLoader 缓存未命中时的数据源，一般是 repo.CreditsRepo。
type BalanceLoader interface {
	Balance(ctx context.Context, userID int64) (repo.Balance, error)
}

// BalanceCache 预览用的余额读缓存：L1 ristretto，L2 Redis，最后回源数据库。
// 提交时的准入检查不走缓存，直接读库。
type BalanceCache struct {
	client *redis.Client
	local  *LocalCache
	loader BalanceLoader
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, local *LocalCache, loader BalanceLoader) *BalanceCache {
	return &BalanceCache{
		client: client,
		local:  local,
		loader: loader,
		ttl:    time.Minute,
	}
}

func balanceKey(userID int64) string {
	return "credits:" + strconv.FormatInt(userID, 10)
}

func (c *BalanceCache) Balance(ctx context.Context, userID int64) (repo.Balance, error) {
	// L1
	if c.local != nil {
		if b, ok := c.local.Get(userID); ok {
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return b, nil
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}

	// L2
	if c.client != nil {
		raw, err := c.client.Get(ctx, balanceKey(userID)).Bytes()
		switch {
		case err == nil:
			var b repo.Balance
			if err := json.Unmarshal(raw, &b); err == nil {
				metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
				if c.local != nil {
					c.local.Set(userID, b)
				}
				return b, nil
			}
			// 脏数据当作未命中
			slog.Warn("balance cache decode failed", "user_id", userID)
		case errors.Is(err, redis.Nil):
			metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		default:
			// Redis 故障不影响读余额，直接回源
			slog.Warn("balance cache get failed", "user_id", userID, "err", err)
		}
	}

	b, err := c.loader.Balance(ctx, userID)
	if err != nil {
		return repo.Balance{}, err
	}
	c.set(ctx, userID, b)
	return b, nil
}

func (c *BalanceCache) set(ctx context.Context, userID int64, b repo.Balance) {
	if c.local != nil {
		c.local.Set(userID, b)
	}
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(userID), raw, c.ttl).Err(); err != nil {
		slog.Warn("balance cache set failed", "user_id", userID, "err", err)
	}
}

// Invalidate 余额变动（创建任务、充值、结算）后调用。
func (c *BalanceCache) Invalidate(ctx context.Context, userID int64) error {
	if c.local != nil {
		c.local.Del(userID)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, balanceKey(userID)).Err()
}

func (c *BalanceCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("本地缓存已关闭")
	}
}
