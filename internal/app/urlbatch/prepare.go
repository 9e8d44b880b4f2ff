package urlbatch

// Preparation 把解析、去重、估价、准入串在一起的结果。
// 预览和提交时的最终校验走的是同一条路径。
type Preparation struct {
	Parse       ParseResult
	Dedup       DedupResult
	Quote       CreditQuote
	Eligibility EligibilityResult
}

// Batch 返回可提交的 URL 列表；不可提交时为 nil。
func (p Preparation) Batch() []string {
	if !p.Eligibility.CanSubmit {
		return nil
	}
	return p.Dedup.Unique
}

// Prepare Parse -> Deduplicate -> EstimateCredits -> Evaluate。
func Prepare(raw string, available int, inFlight bool, p Policy) Preparation {
	parsed := Parse(raw)
	dedup := Deduplicate(parsed.URLs)
	required := EstimateCredits(len(dedup.Unique), p)
	quote := Quote(required, available)
	elig := Evaluate(GateInput{
		UniqueCount:       len(dedup.Unique),
		DuplicateCount:    dedup.DuplicateCount,
		RequiredCredits:   required,
		AvailableCredits:  available,
		HasUnresolvedErrs: parsed.HasErrors,
		InFlight:          inFlight,
	}, p)
	return Preparation{
		Parse:       parsed,
		Dedup:       dedup,
		Quote:       quote,
		Eligibility: elig,
	}
}
