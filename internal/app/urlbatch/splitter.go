package urlbatch

import "strings"

// SplitConcatenated 恢复无分隔符粘在一起的多个 URL，例如
// "https://a.com/xhttps://b.com/y" -> ["https://a.com/x", "https://b.com/y"]。
//
// 每段从一个协议标记开始，到下一个协议标记（不含）或行尾结束。
// 解析失败的段直接丢弃，不单独报错。
func SplitConcatenated(line string) []string {
	urls, _ := splitSegments(line)
	return urls
}

// splitSegments 同 SplitConcatenated，另外返回被丢弃的段数。
func splitSegments(line string) ([]string, int) {
	starts := markerPositions(line)
	if len(starts) == 0 {
		return nil, 0
	}
	urls := make([]string, 0, len(starts))
	dropped := 0
	for i, start := range starts {
		end := len(line)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		seg := strings.TrimSpace(line[start:end])
		if !IsURL(seg) {
			dropped++
			continue
		}
		urls = append(urls, seg)
	}
	return urls, dropped
}

// markerPositions 返回所有 "http://" / "https://" 的起始下标（升序）。
func markerPositions(line string) []int {
	var pos []int
	for from := 0; from < len(line); {
		i := strings.Index(line[from:], "http")
		if i < 0 {
			break
		}
		i += from
		if hasProtocol(line[i:]) {
			pos = append(pos, i)
		}
		from = i + len("http")
	}
	return pos
}
