package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"urlindex.local/internal/app/urlbatch/repo"
)

// LocalCache 基于 ristretto 的进程内余额缓存（L1）。
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache 创建本地缓存
// maxItems: 最大缓存条目数
// maxCost: 最大成本（这里按条目计，cost=1）
func NewLocalCache(maxItems int64, maxCost int64, ttl time.Duration) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &LocalCache{cache: cache, ttl: ttl}, nil
}

func (l *LocalCache) Get(userID int64) (repo.Balance, bool) {
	if v, ok := l.cache.Get(userID); ok {
		if b, ok := v.(repo.Balance); ok {
			return b, true
		}
	}
	return repo.Balance{}, false
}

func (l *LocalCache) Set(userID int64, b repo.Balance) {
	l.cache.SetWithTTL(userID, b, 1, l.ttl)
}

// Wait 等待缓冲区写入生效（ristretto 的 Set 是异步的）。
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

func (l *LocalCache) Del(userID int64) {
	l.cache.Del(userID)
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
