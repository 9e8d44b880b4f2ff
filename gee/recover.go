package gee

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// stack 只保留调用栈里的 file:line，日志里够用
func stack(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d\n", f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func Recovery() HandlerFunc {
	return RecoveryWith(nil)
}

// RecoveryWith 捕获 panic 后先回调 onPanic（打点用），再返回 500。
func RecoveryWith(onPanic func(ctx *Context, v any)) HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			slog.Error("panic recovered",
				"request_id", ctx.RequestID(),
				"method", ctx.Method,
				"path", ctx.Path,
				"route", ctx.RoutePattern,
				"panic", fmt.Sprint(v),
				"stack", stack(4),
			)
			if onPanic != nil {
				onPanic(ctx, v)
			}
			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "Internal Server Error")
		}()
		ctx.Next()
	}
}
