package lakeq

import "strings"

// Kind classifies a JSON value. The declaration order is the kind rank
// used by the shared total order: null sorts below everything, objects
// above everything. Both execution backends depend on this exact order.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of a JSON value. Values must already be in
// the canonical representation (nil, bool, float64, string, []any,
// map[string]any); anything else counts as null.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindNull
	}
}

// IsTruthy reports predicate truthiness: null, false and absent values
// are falsy, everything else (including 0 and "") is truthy.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}

// Compare imposes the single total order shared by filters, order()
// and the SQL the transpiler emits: kind rank first, natural order
// within a kind. Strings compare byte-wise, matching the byte-order
// collation requested from the store. Arrays and objects carry no
// intra-kind order; callers break the tie on document identity.
func Compare(a, b any) int {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}

		return 1
	}

	switch ka {
	case KindBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}

		if !av {
			return -1
		}

		return 1
	case KindNumber:
		av, bv := a.(float64), b.(float64)

		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case KindString:
		return strings.Compare(a.(string), b.(string))
	default:
		return 0
	}
}

// Equal reports deep equality between two JSON values. Numbers compare
// as doubles, arrays element-wise in order, objects key-wise.
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindNull:
		return true
	case KindBool, KindNumber, KindString:
		return a == b
	case KindArray:
		av, bv := a.([]any), b.([]any)
		if len(av) != len(bv) {
			return false
		}

		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}

		return true
	case KindObject:
		av, bv := a.(map[string]any), b.(map[string]any)
		if len(av) != len(bv) {
			return false
		}

		for k, x := range av {
			y, ok := bv[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// NormalizeValue converts a decoded value into the canonical JSON
// representation. YAML decoders and database scans hand back integer
// types; evaluation works on doubles only.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = NormalizeValue(e)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = NormalizeValue(e)
		}

		return out
	default:
		return v
	}
}

// NormalizeParams normalizes every binding in a parameter map.
func NormalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = NormalizeValue(v)
	}

	return out
}
