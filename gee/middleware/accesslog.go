package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"urlindex.local/gee"
)

// AccessLog 每个请求一行；5xx 记 Error，4xx 记 Warn。
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}

		slog.Log(context.Background(), level, "access",
			"request_id", ctx.RequestID(),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", route,
			"status", status,
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
