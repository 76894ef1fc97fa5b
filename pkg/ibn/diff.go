package ibn

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ConfigEqual reports whether two configuration documents are
// structurally equal: mappings compare order-independently, sequences
// order-dependently, scalars by value. An empty map is not equal to nil.
//
// Equality is decided by comparing canonical string forms. The canonical
// form is total over arbitrary nesting and mixed types, so re-invoking a
// reconciliation with an unchanged document always converges to a no-op.
func ConfigEqual(a, b any) bool {
	return canonicalize(a) == canonicalize(b)
}

// canonicalize produces a totally ordered textual representation of a
// decoded JSON value. Map entries are sorted by key; every value is
// tagged with its kind so "1", 1 and true cannot collide.
func canonicalize(v any) string {
	switch val := v.(type) {
	case nil:
		return "z"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "m{"
		for _, k := range keys {
			out += strconv.Quote(k) + ":" + canonicalize(val[k]) + ","
		}
		return out + "}"
	case []any:
		out := "l["
		for _, item := range val {
			out += canonicalize(item) + ","
		}
		return out + "]"
	case string:
		return "s" + strconv.Quote(val)
	case bool:
		return "b" + strconv.FormatBool(val)
	case float64:
		return canonicalNumber(val)
	case float32:
		return canonicalNumber(float64(val))
	case int:
		return canonicalNumber(float64(val))
	case int32:
		return canonicalNumber(float64(val))
	case int64:
		return canonicalNumber(float64(val))
	case uint:
		return canonicalNumber(float64(val))
	case uint64:
		return canonicalNumber(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return canonicalNumber(f)
		}
		return "s" + strconv.Quote(val.String())
	default:
		// Unknown kinds fall back to their formatted value, prefixed so
		// they cannot collide with quoted strings.
		return "?" + fmt.Sprintf("%v", val)
	}
}

// canonicalNumber renders all numeric kinds identically, so a document
// decoded with int versions compares equal to one decoded with float64.
// NaN gets a fixed token: two NaNs compare equal structurally, keeping
// re-reconciliation convergent instead of rewriting the same document
// forever.
func canonicalNumber(f float64) string {
	if math.IsNaN(f) {
		return "nNaN"
	}
	return "n" + strconv.FormatFloat(f, 'g', -1, 64)
}
