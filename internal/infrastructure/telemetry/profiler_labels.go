package telemetry

import (
	"context"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelTenantID  = "tenant_id"
	ProfilingLabelOperation = "operation"
	ProfilingLabelJob       = "job"
)

// MaxLabelValueLength caps label values so a runaway value cannot blow up
// the profile series count.
const MaxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles
var highCardinalityLabels = map[string]bool{
	"user_id":        true,
	"request_id":     true,
	"trace_id":       true,
	"span_id":        true,
	"supplier_id":    true,
	"purchase_id":    true,
	"transaction_id": true,
}

// WithProfilingLabels runs fn with pprof labels attached, so CPU and lock
// samples taken inside fn can be filtered by them in Pyroscope. The labels
// are also visible through pprof.Label on the context passed to fn.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels drops empty and high-cardinality entries, truncates long
// values and returns key/value pairs sorted by key.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "" || v == "" || highCardinalityLabels[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
