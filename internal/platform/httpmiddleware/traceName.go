package httpmiddleware

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/auth"
	ptrace "urlindex.local/internal/platform/trace"
)

// TraceName 用路由模板重命名 otelhttp 建的 span，并补上 request id 和登录用户。
// 需要放在 ReqID 之后；认证中间件在路由组上，所以用户属性在 handler 返回后再补。
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		span := trace.SpanFromContext(ctx.Req.Context())
		if !span.IsRecording() {
			ctx.Next()
			return
		}
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		span.SetName(ctx.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.String(ptrace.AttrRequestID, ctx.RequestID()),
		)

		ctx.Next()

		if id, ok := auth.GetIdentity(ctx.Req.Context()); ok {
			span.SetAttributes(attribute.String(ptrace.AttrAuthUser, id.UserID))
		}
	}
}
