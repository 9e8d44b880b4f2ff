package urlbatch

import "strings"

// DedupResult 去重结果。
type DedupResult struct {
	Unique         []string
	DuplicateCount int
}

// DedupKey 仅做小写 + 去首尾空白；尾部斜杠、query、fragment 都保留。
func DedupKey(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// Deduplicate 保留每个 key 的第一次出现，保持相对顺序。
func Deduplicate(urls []string) DedupResult {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		k := DedupKey(u)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, u)
	}
	return DedupResult{
		Unique:         unique,
		DuplicateCount: len(urls) - len(unique),
	}
}
