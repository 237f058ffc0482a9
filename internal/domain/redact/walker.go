package redact

import "sort"

// RedactValue walks a JSON-shaped value and redacts every string leaf with
// the stage-1 pattern table. Maps and slices recurse; map keys are never
// redacted; non-string leaves (numbers, booleans, nil) pass through
// unchanged. The walk allocates fresh containers and never mutates the
// input. Counts accumulate across the whole walk; types union.
func RedactValue(v any) (any, *Summary) {
	sum := NewSummary()
	return redactValue(v, sum), sum
}

func redactValue(v any, sum *Summary) any {
	switch val := v.(type) {
	case string:
		masked, s := RedactString(val)
		sum.Merge(s)
		return masked

	case map[string]any:
		// Sorted keys keep the summary's type order stable across runs.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(val))
		for _, k := range keys {
			out[k] = redactValue(val[k], sum)
		}
		return out

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item, sum)
		}
		return out

	default:
		return v
	}
}
