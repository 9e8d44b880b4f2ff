package urlbatch

import "strings"

// URLRecord 提取出的 URL 及其来源行号。同一行可以产出多条。
type URLRecord struct {
	URL       string `json:"url"`
	LineIndex int    `json:"line"`
}

// ParseResult 是对一次完整输入的解析结果。
//
// URLs 按行顺序排列，尚未去重；InvalidLines 是所有非 Valid 行的原文。
type ParseResult struct {
	URLs           []string
	Records        []URLRecord
	CorrectedInput string
	HasErrors      bool
	InvalidLines   []string
	Lines          []LineOutcome
}

// Parse 对整段输入做逐行校验并汇总。纯函数，每次调用都从头计算。
func Parse(raw string) ParseResult {
	lines := ScanLines(raw)
	res := ParseResult{
		URLs:  []string{},
		Lines: make([]LineOutcome, 0, len(lines)),
	}
	corrected := make([]string, 0, len(lines))

	for _, line := range lines {
		out := ValidateLine(line)
		res.Lines = append(res.Lines, out)
		corrected = append(corrected, out.Corrected)
		if line.Blank() {
			continue
		}
		for _, u := range out.URLs {
			res.URLs = append(res.URLs, u)
			res.Records = append(res.Records, URLRecord{URL: u, LineIndex: line.Index})
		}
		if out.Outcome != Valid {
			res.HasErrors = true
			res.InvalidLines = append(res.InvalidLines, line.Text)
		}
	}
	res.CorrectedInput = strings.Join(corrected, "\n")
	return res
}

// Counts 按类别统计非空行数量。
func (r ParseResult) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, l := range r.Lines {
		if l.Line.Blank() {
			continue
		}
		counts[l.Outcome]++
	}
	return counts
}

const (
	DefaultInvalidLinesShown = 3
	moreSuffix               = "and more..."
)

// FormatInvalidLines 生成面向用户的错误提示，最多展示 limit 行，其余用 "and more..." 代替。
func FormatInvalidLines(lines []string, limit int) string {
	if len(lines) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = DefaultInvalidLinesShown
	}
	shown := lines
	if len(shown) > limit {
		shown = shown[:limit]
	}
	msg := "Invalid URLs: " + strings.Join(shown, ", ")
	if len(lines) > limit {
		msg += " " + moreSuffix
	}
	return msg
}
