package cache

import (
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"urlindex.local/internal/app/urlbatch"
)

// SubmittedFilter 记录用户提交过的 URL（按去重 key），只用于预览提示
// “其中 N 条以前提交过”，不参与准入判断。
type SubmittedFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewSubmittedFilter
// expectedItems: 预期存储的元素数量
// falsePositiveRate: 误判率（建议 0.01 即 1%）
func NewSubmittedFilter(expectedItems uint, falsePositiveRate float64) *SubmittedFilter {
	return &SubmittedFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func submittedKey(userID int64, url string) string {
	return strconv.FormatInt(userID, 10) + "|" + urlbatch.DedupKey(url)
}

func (b *SubmittedFilter) Add(userID int64, urls []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range urls {
		b.filter.AddString(submittedKey(userID, u))
	}
}

// MightContain 返回 false 表示一定没提交过；true 表示可能提交过。
func (b *SubmittedFilter) MightContain(userID int64, url string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.TestString(submittedKey(userID, url))
}

func (b *SubmittedFilter) CountSubmitted(userID int64, urls []string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, u := range urls {
		if b.filter.TestString(submittedKey(userID, u)) {
			n++
		}
	}
	return n
}

// Count 已添加元素数量（估算）
func (b *SubmittedFilter) Count() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.ApproximatedSize()
}
