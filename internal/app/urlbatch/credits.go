package urlbatch

// CreditQuote 积分报价。
type CreditQuote struct {
	Required   int  `json:"required"`
	Available  int  `json:"available"`
	Sufficient bool `json:"sufficient"`
}

// EstimateCredits 每个唯一 URL 固定积分，与任务类型、VIP 标记无关。
func EstimateCredits(uniqueCount int, p Policy) int {
	if uniqueCount <= 0 {
		return 0
	}
	return uniqueCount * p.normalized().CreditsPerURL
}

func Quote(required, available int) CreditQuote {
	return CreditQuote{
		Required:   required,
		Available:  available,
		Sufficient: required <= available,
	}
}
