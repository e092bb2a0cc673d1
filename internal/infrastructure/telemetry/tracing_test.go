package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "organization", "search",
		WithAttribute(SpanAttrBuildingID, int64(7)),
		WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	SetAttributes(span, SpanAttrResultCount, 3, 42, "ignored", "flag", true)
	AddEvent(span, "cache_miss", "entity", "activity")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "organization.search", got.Name())
	assert.Equal(t, trace.SpanKindServer, got.SpanKind())

	attrs := attrMap(got.Attributes())
	assert.Equal(t, int64(7), attrs[SpanAttrBuildingID].AsInt64())
	assert.Equal(t, int64(3), attrs[SpanAttrResultCount].AsInt64())
	assert.True(t, attrs["flag"].AsBool())
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "cache_miss", got.Events()[0].Name)
}

func TestEndSpan_RecordsError(t *testing.T) {
	recorder := installRecorder(t)

	failing := func() (err error) {
		_, span := StartSpan(context.Background(), "export.snapshot")
		defer EndSpan(span, &err)
		return errors.New("upload failed")
	}
	require.Error(t, failing())

	succeeding := func() (err error) {
		_, span := StartSpan(context.Background(), "export.snapshot")
		defer EndSpan(span, &err)
		return nil
	}
	require.NoError(t, succeeding())

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "upload failed", spans[0].Status().Description)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestTraceIDs_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestToAttribute(t *testing.T) {
	assert.Equal(t, "v", toAttribute("k", "v").Value.AsString())
	assert.Equal(t, int64(1), toAttribute("k", 1).Value.AsInt64())
	assert.Equal(t, 1.5, toAttribute("k", 1.5).Value.AsFloat64())
	assert.Equal(t, []string{"a"}, toAttribute("k", []string{"a"}).Value.AsStringSlice())
	assert.Equal(t, []int64{1, 2}, toAttribute("k", []int64{1, 2}).Value.AsInt64Slice())
	assert.Equal(t, "stringer", toAttribute("k", stringer{}).Value.AsString())
	assert.Equal(t, "{1}", toAttribute("k", struct{ A int }{1}).Value.AsString())
}
