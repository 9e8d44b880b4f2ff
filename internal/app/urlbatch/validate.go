package urlbatch

import (
	"net/url"
	"regexp"
	"strings"
)

// Outcome 是单行校验的结果标签。
type Outcome int

const (
	Valid Outcome = iota
	ConcatenatedValid
	BareDomainInvalid
	TrailingTokenInvalid
	PlainInvalid
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case ConcatenatedValid:
		return "concatenated_valid"
	case BareDomainInvalid:
		return "bare_domain_invalid"
	case TrailingTokenInvalid:
		return "trailing_token_invalid"
	case PlainInvalid:
		return "plain_invalid"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// LineOutcome 单行的校验结果：标签、提取出的 URL、修正后的文本。
type LineOutcome struct {
	Line      CandidateLine
	Outcome   Outcome
	URLs      []string
	Corrected string
}

const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
)

func hasProtocol(s string) bool {
	return strings.HasPrefix(s, schemeHTTP) || strings.HasPrefix(s, schemeHTTPS)
}

// 行首或空白之后出现的“像域名”的片段：可选 www.，至少一个点，2 位以上字母 TLD。
var bareDomainRe = regexp.MustCompile(`(?:^|\s)(?:www\.)?[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)

// IsURL 判断字符串本身是否是一个合法的 http/https URL。
//
// 规则：
// - 以小写 http:// 或 https:// 开头，大写 scheme 不算
// - 能被 net/url 解析
// - host 不能为空
func IsURL(raw string) bool {
	if !hasProtocol(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.TrimSpace(u.Host) != ""
}

// ValidateLine 按顺序判定一行的类别，命中即返回。
func ValidateLine(line CandidateLine) LineOutcome {
	trimmed := strings.TrimSpace(line.Text)
	out := LineOutcome{Line: line, Corrected: line.Text}
	if trimmed == "" {
		out.Corrected = ""
		return out
	}

	if hasTrailingToken(trimmed) {
		out.Outcome = TrailingTokenInvalid
		return out
	}
	if bareDomainRe.MatchString(trimmed) {
		out.Outcome = BareDomainInvalid
		return out
	}

	urls, dropped := splitSegments(trimmed)
	switch {
	case len(urls) == 1 && dropped > 0 && IsURL(trimmed):
		// 例如 https://a.com/r/https:// ，尾段为空被丢弃，整行本身就是一个 URL
		out.Outcome = Valid
		out.URLs = []string{trimmed}
		out.Corrected = trimmed
	case len(urls) > 1:
		out.Outcome = ConcatenatedValid
		out.URLs = urls
		out.Corrected = strings.Join(urls, "\n")
	case len(urls) == 1:
		out.Outcome = Valid
		out.URLs = urls
		out.Corrected = urls[0]
	case IsURL(trimmed):
		out.Outcome = Valid
		out.URLs = []string{trimmed}
		out.Corrected = trimmed
	default:
		out.Outcome = PlainInvalid
	}
	return out
}

// hasTrailingToken 第一个 token 之后，只要有一个非空 token 不以协议开头即命中。
func hasTrailingToken(line string) bool {
	tokens := strings.Split(line, " ")
	for _, tok := range tokens[1:] {
		if tok != "" && !hasProtocol(tok) {
			return true
		}
	}
	return false
}
