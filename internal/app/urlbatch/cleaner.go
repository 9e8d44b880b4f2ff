package urlbatch

import "strings"

// CleanInput 是用户主动触发的“清理”：每行只保留以协议开头的 token，其余全部丢弃。
// 不会失败，最坏情况下一行被清成空行。
func CleanInput(raw string) string {
	lines := ScanLines(raw)
	cleaned := make([]string, len(lines))
	for i, line := range lines {
		cleaned[i] = CleanLine(line.Text)
	}
	return strings.Join(cleaned, "\n")
}

func CleanLine(line string) string {
	tokens := strings.Split(line, " ")
	var kept []string
	for _, tok := range tokens {
		if hasProtocol(tok) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}
