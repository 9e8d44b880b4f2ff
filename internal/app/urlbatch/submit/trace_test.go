package submit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"urlindex.local/internal/platform/trace"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestSubmitRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(10)
	_, err := f.svc.Submit(context.Background(), req("https://a.com\nhttps://b.com\nhttps://a.com"))
	require.ErrorIs(t, err, ErrNotEligible)

	task, err := f.svc.Submit(context.Background(), req("https://a.com\nhttps://b.com"))
	require.NoError(t, err)

	ended := sr.Ended()
	require.Len(t, ended, 2)

	blocked := ended[0]
	assert.Equal(t, "urlbatch.submit", blocked.Name())
	assert.Equal(t, codes.Error, blocked.Status().Code)
	attrs := spanAttrs(blocked)
	assert.Equal(t, int64(1), attrs[trace.AttrDuplicateURLs].AsInt64())
	assert.Contains(t, attrs[trace.AttrBlockCodes].AsStringSlice(), "duplicates_present")

	ok := spanAttrs(ended[1])
	assert.Equal(t, int64(1), ok[trace.AttrUserID].AsInt64())
	assert.Equal(t, int64(2), ok[trace.AttrUniqueURLs].AsInt64())
	assert.Equal(t, task.Code, ok[trace.AttrTaskCode].AsString())
}
