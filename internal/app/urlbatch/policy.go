package urlbatch

// Policy 是产品策略常量（单任务 URL 上限、每个唯一 URL 的积分）。
// 通过配置注入，不在算法里写死。
type Policy struct {
	MaxURLsPerTask int
	CreditsPerURL  int
}

const (
	DefaultMaxURLsPerTask = 10000
	DefaultCreditsPerURL  = 1
)

func DefaultPolicy() Policy {
	return Policy{
		MaxURLsPerTask: DefaultMaxURLsPerTask,
		CreditsPerURL:  DefaultCreditsPerURL,
	}
}

// normalized 把非法取值回退到默认值，保证 gate 与估价永远有可用的策略。
func (p Policy) normalized() Policy {
	if p.MaxURLsPerTask <= 0 {
		p.MaxURLsPerTask = DefaultMaxURLsPerTask
	}
	if p.CreditsPerURL <= 0 {
		p.CreditsPerURL = DefaultCreditsPerURL
	}
	return p
}

// TaskType 任务类型。积分计算与类型无关。
type TaskType string

const (
	TaskTypeIndexer TaskType = "indexer"
	TaskTypeChecker TaskType = "checker"
)

func (t TaskType) Valid() bool {
	return t == TaskTypeIndexer || t == TaskTypeChecker
}
