package telemetry

import (
	"context"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys attached to profile samples.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength bounds label values.
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profile labels; every distinct value
// creates a new series in Pyroscope.
var highCardinalityLabels = map[string]bool{
	"user_id":         true,
	"organization_id": true,
	"request_id":      true,
	"trace_id":        true,
	"span_id":         true,
	"email":           true,
}

// IsHighCardinalityLabel reports whether key is dropped by WithProfilingLabels.
func IsHighCardinalityLabel(key string) bool {
	return highCardinalityLabels[sanitizeLabelKey(key)]
}

// WithProfilingLabels runs fn with the given Pyroscope labels on its goroutine.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is WithProfilingLabels through runtime/pprof directly, for
// code paths that are profiled with go tool pprof rather than Pyroscope.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// sanitizeLabels flattens labels into key/value pairs sorted by sanitized key,
// dropping empty and high-cardinality entries and truncating long values.
// When two raw keys sanitize to the same key, the one that sorts first wins.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	raw := make([]string, 0, len(labels))
	for k := range labels {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	values := make(map[string]string, len(labels))
	keys := make([]string, 0, len(labels))
	for _, k := range raw {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || highCardinalityLabels[key] {
			continue
		}
		if _, dup := values[key]; dup {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		values[key] = v
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, values[key])
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_], mapping spaces
// and dashes to underscores.
func sanitizeLabelKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// HTTPRequestLabels builds the labels the profiling middleware attaches to a request.
func HTTPRequestLabels(controller, route, method string) map[string]string {
	labels := make(map[string]string, 3)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// OperationLabels labels a named application operation.
func OperationLabels(operation string, extra map[string]string) map[string]string {
	return withLabel(ProfilingLabelOperation, operation, extra)
}

// RegionLabels labels a code region such as "db_query" or "s3_upload".
func RegionLabels(region string, extra map[string]string) map[string]string {
	return withLabel(ProfilingLabelRegion, region, extra)
}

func withLabel(key, value string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		labels[k] = v
	}
	labels[key] = value
	return labels
}
