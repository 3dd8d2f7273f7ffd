package expr

import (
	"fmt"
	"strconv"
)

// Item is a number tagged with the key it came from.
type Item struct {
	Key   string
	Value float64
}

// List is an ordered sequence of keyed numbers.
// Keys may repeat; order is the order the caller supplied.
type List []Item

// Values returns the numbers in the list, in order.
func (l List) Values() []float64 {
	out := make([]float64, len(l))
	for i, it := range l {
		out[i] = it.Value
	}
	return out
}

// normalize converts caller-supplied variables into interpreter values.
// Integers widen to float64, []float64 becomes an unkeyed List and
// numeric strings stay strings.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case float64, bool, string, List:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case []Item:
		return List(val), nil
	case []float64:
		l := make(List, len(val))
		for i, f := range val {
			l[i] = Item{Value: f}
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unsupported variable type %T", ErrTypeMismatch, v)
	}
}

// IsTruthy returns whether a value is truthy.
// Booleans return their value, numbers are true when non-zero,
// strings and lists are true when non-empty.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case List:
		return len(val) > 0
	default:
		return true
	}
}

// ToFloat64 converts a value to float64.
// Returns 0 for values that cannot be converted.
func ToFloat64(v any) float64 {
	f, err := toNumber(v)
	if err != nil {
		return 0
	}
	return f
}

// toNumber converts a value to a number, failing on anything ambiguous.
func toNumber(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: string %q is not a number", ErrTypeMismatch, val)
		}
		return f, nil
	case List:
		switch len(val) {
		case 0:
			return 0, fmt.Errorf("%w: empty list used as a number", ErrTypeMismatch)
		case 1:
			return val[0].Value, nil
		default:
			return 0, fmt.Errorf("%w: list of %d values used as a number; aggregate it first",
				ErrTypeMismatch, len(val))
		}
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrTypeMismatch, v)
	}
}

// FormatNumber renders f in the shortest form that parses back to f.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// typeName is the name used for a value in error messages.
func typeName(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "bool"
	case string:
		return "string"
	case List:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}
