package httpmiddleware

import (
	"strconv"
	"time"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/metrics"
)

// Metrics 记录请求数、耗时和并发数。skip 中的路径（探活之类）不计入。
func Metrics(skip ...string) gee.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(ctx *gee.Context) {
		if _, ok := skipped[ctx.Path]; ok {
			ctx.Next()
			return
		}
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		ctx.Next()

		// 404/405 没有路由模板，统一归到一个 label，避免真实 path 撑爆基数
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, status).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
	}
}

// PanicCounter 给 gee.RecoveryWith 用的回调
func PanicCounter() func(*gee.Context, any) {
	return func(ctx *gee.Context, _ any) {
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		metrics.PanicsTotal.WithLabelValues(route).Inc()
	}
}
