package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 保证指标只注册一次，重复注册同名指标会 panic。
	once sync.Once

	// HTTPRequestsTotal 累计请求数。
	//
	// labels：
	// - method：HTTP 方法
	// - route：路由模板（用 pattern，不用真实 path，避免高基数）
	// - status：状态码字符串
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds 请求耗时分布，用于 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests 当前处理中的请求数。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	PanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Recovered handler panics, by route.",
		},
		[]string{"route"},
	)

	// CacheOperations 余额缓存命中情况，level=l1|l2，result=hit|miss。
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache lookups by level and result.",
		},
		[]string{"level", "result"},
	)

	// URLBatchLines 按校验结果统计的非空输入行数。
	URLBatchLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlbatch_lines_total",
			Help: "Parsed input lines by validation outcome.",
		},
		[]string{"outcome"},
	)

	// SubmitBlocked 提交被准入检查拦截的次数，按原因。
	SubmitBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlbatch_submit_blocked_total",
			Help: "Submissions rejected by the eligibility gate, by reason.",
		},
		[]string{"reason"},
	)

	TasksCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlbatch_tasks_created_total",
			Help: "Tasks created, by task type.",
		},
		[]string{"type"},
	)

	TaskURLs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlbatch_task_urls_total",
			Help: "Unique URLs accepted into tasks.",
		},
	)
)

// Init 注册指标：只允许注册一次
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			PanicsTotal,
			CacheOperations,
			URLBatchLines,
			SubmitBlocked,
			TasksCreated,
			TaskURLs,
		)
	})
}
