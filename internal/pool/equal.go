package pool

import (
	"reflect"

	"llmpoold/pkg/types"
)

// configsEqual compares two worker configurations structurally. Options
// maps are walked recursively so nested mappings compare by content, not
// identity.
func configsEqual(a, b types.WorkerConfig) bool {
	if a.ModelPath != b.ModelPath || a.Backend != b.Backend {
		return false
	}
	ao, bo := a.Options, b.Options
	if ao == nil {
		ao = map[string]any{}
	}
	if bo == nil {
		bo = map[string]any{}
	}
	return valuesEqual(ao, bo)
}

// valuesEqual compares two option values. Maps and slices recurse;
// numbers compare by value across int/int64/float64 so that configs that
// round-tripped through JSON or YAML still compare equal.
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !valuesEqual(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	case int, int64, float64:
		af, _ := toFloat(a)
		bf, ok := toFloat(b)
		return ok && af == bf
	default:
		// Typed maps and slices (map[string]string, []string, ...) are
		// valid option values but not comparable with ==.
		return reflect.DeepEqual(a, b)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
