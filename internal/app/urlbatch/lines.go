package urlbatch

import "strings"

// CandidateLine 是原始输入中的一行及其行号（从 0 开始）。
type CandidateLine struct {
	Index int
	Text  string
}

// Blank 空行（或只有空白）不产生 URL，也不算错误。
func (l CandidateLine) Blank() bool {
	return strings.TrimSpace(l.Text) == ""
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ScanLines 按换行拆分原始输入，保留空行与顺序。
func ScanLines(raw string) []CandidateLine {
	parts := strings.Split(lineBreaks.Replace(raw), "\n")
	lines := make([]CandidateLine, len(parts))
	for i, p := range parts {
		lines[i] = CandidateLine{Index: i, Text: p}
	}
	return lines
}
