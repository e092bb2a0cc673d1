package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans.
const TracerName = "github.com/orgdir/backend"

// Span attribute keys used by the directory services.
const (
	SpanAttrBuildingID     = "building.id"
	SpanAttrActivityID     = "activity.id"
	SpanAttrOrganizationID = "organization.id"
	SpanAttrUserID         = "user.id"
	SpanAttrResultCount    = "result.count"
	SpanAttrObjectKey      = "storage.key"
	SpanAttrRequestID      = "request_id"
)

// SpanOption configures StartSpan.
type SpanOption func(*spanOptions)

type spanOptions struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute at span start.
func WithAttribute(key string, value any) SpanOption {
	return func(o *spanOptions) {
		o.attributes = append(o.attributes, toAttribute(key, value))
	}
}

// WithSpanKind overrides the default internal span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(o *spanOptions) {
		o.kind = kind
	}
}

// StartSpan starts a span on the global tracer provider. Callers must End it.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	o := &spanOptions{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(o)
	}
	startOpts := []trace.SpanStartOption{trace.WithSpanKind(o.kind)}
	if len(o.attributes) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(o.attributes...))
	}
	return otel.Tracer(TracerName).Start(ctx, name, startOpts...)
}

// StartServiceSpan names the span "<service>.<method>", e.g. "organization.search".
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes adds alternating key/value pairs to span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairsToAttributes(keyValues)...)
}

// AddEvent records a named event with alternating key/value pairs.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(pairsToAttributes(keyValues)...))
}

// RecordError marks span as failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// EndSpan records err, if any, and ends span. Intended for defer with a named error result.
func EndSpan(span trace.Span, err *error) {
	if err != nil {
		RecordError(span, *err)
	}
	span.End()
}

// GetTraceID returns the hex trace id of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the hex span id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.SpanID().IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

func pairsToAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int64:
		return attribute.Int64Slice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
