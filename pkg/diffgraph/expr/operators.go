package expr

import (
	"fmt"
)

// Compare compares two values using the specified operator.
// Numbers (and single-item lists) compare numerically, strings lexically,
// and booleans only for equality. Returns an error for unknown operators
// or operands that cannot be ordered.
func Compare(left, right any, op string) (bool, error) {
	switch op {
	case "==":
		return compareEquals(left, right), nil
	case "!=":
		return !compareEquals(left, right), nil
	case "<", ">", "<=", ">=":
		return compareOrdered(left, right, op)
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

// compareEquals compares numerically when both sides are numeric,
// otherwise by their printed form.
func compareEquals(left, right any) bool {
	if isNumeric(left) && isNumeric(right) {
		return ToFloat64(left) == ToFloat64(right)
	}
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

func compareOrdered(left, right any, op string) (bool, error) {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return orderedResult(compareStrings(ls, rs), op), nil
		}
	}
	l, err := toNumber(left)
	if err != nil {
		return false, fmt.Errorf("cannot order %s: %w", typeName(left), err)
	}
	r, err := toNumber(right)
	if err != nil {
		return false, fmt.Errorf("cannot order %s: %w", typeName(right), err)
	}
	switch {
	case l < r:
		return orderedResult(-1, op), nil
	case l > r:
		return orderedResult(1, op), nil
	default:
		return orderedResult(0, op), nil
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func orderedResult(cmp int, op string) bool {
	switch op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	default:
		return cmp >= 0
	}
}

func isNumeric(v any) bool {
	switch val := v.(type) {
	case float64:
		return true
	case List:
		return len(val) == 1
	default:
		return false
	}
}
