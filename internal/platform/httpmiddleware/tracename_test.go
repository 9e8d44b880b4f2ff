package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/auth"
	ptrace "urlindex.local/internal/platform/trace"
)

func TestTraceNameRenamesSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := gee.New()
	r.Use(TraceName())
	r.GET("/tasks/:code", func(ctx *gee.Context) {
		// 模拟 AuthRequired 注入身份
		ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), auth.Identity{UserID: "42", Role: "user"}))
		ctx.String(http.StatusOK, "ok")
	})

	// 模拟 otelhttp：在外层开 span 放进请求上下文
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "http")
	req := httptest.NewRequest(http.MethodGet, "/tasks/k3x", nil).WithContext(spanCtx)
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("spans: got %d", len(ended))
	}
	if got := ended[0].Name(); got != "GET /tasks/:code" {
		t.Fatalf("span name: got %q", got)
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if attrs[ptrace.AttrRequestID] != "rid-1" || attrs["http.route"] != "/tasks/:code" {
		t.Fatalf("attrs: %v", attrs)
	}
	if attrs[ptrace.AttrAuthUser] != "42" {
		t.Fatalf("enduser.id: got %q", attrs[ptrace.AttrAuthUser])
	}
}
