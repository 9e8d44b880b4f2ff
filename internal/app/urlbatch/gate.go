package urlbatch

import (
	"fmt"
	"strconv"
)

// BlockCode 是批次级别的拦截原因。
type BlockCode string

const (
	BlockNoURLs              BlockCode = "no_urls"
	BlockOverCapacity        BlockCode = "over_capacity"
	BlockDuplicatesPresent   BlockCode = "duplicates_present"
	BlockInsufficientCredits BlockCode = "insufficient_credits"
	BlockValidationErrors    BlockCode = "validation_errors"
	BlockInFlight            BlockCode = "in_flight"
)

// GateInput 是 EligibilityGate 的全部输入。
type GateInput struct {
	UniqueCount       int
	DuplicateCount    int
	RequiredCredits   int
	AvailableCredits  int
	HasUnresolvedErrs bool
	InFlight          bool
}

// EligibilityResult 没有任何拦截原因即可提交。
type EligibilityResult struct {
	CanSubmit       bool        `json:"can_submit"`
	BlockingReasons []string    `json:"blocking_reasons"`
	Codes           []BlockCode `json:"codes"`
}

// Has 判断是否包含某个拦截原因。
func (r EligibilityResult) Has(code BlockCode) bool {
	for _, c := range r.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// Evaluate 纯组合判断：不做 I/O，会返回所有命中的原因而不是第一个。
func Evaluate(in GateInput, p Policy) EligibilityResult {
	p = p.normalized()
	res := EligibilityResult{BlockingReasons: []string{}, Codes: []BlockCode{}}
	block := func(code BlockCode, reason string) {
		res.Codes = append(res.Codes, code)
		res.BlockingReasons = append(res.BlockingReasons, reason)
	}

	if in.UniqueCount == 0 {
		block(BlockNoURLs, "no valid URL present")
	}
	if in.UniqueCount > p.MaxURLsPerTask {
		block(BlockOverCapacity, "maximum "+formatThousands(p.MaxURLsPerTask)+" URLs per task")
	}
	if in.DuplicateCount > 0 {
		block(BlockDuplicatesPresent, "duplicates must be removed before submission")
	}
	if in.RequiredCredits > in.AvailableCredits {
		block(BlockInsufficientCredits, fmt.Sprintf("insufficient credits: need %d, have %d", in.RequiredCredits, in.AvailableCredits))
	}
	if in.HasUnresolvedErrs {
		block(BlockValidationErrors, "fix URL validation errors")
	}
	if in.InFlight {
		block(BlockInFlight, "a submission is already in progress")
	}

	res.CanSubmit = len(res.Codes) == 0
	return res
}

// formatThousands 10000 -> "10,000"
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
