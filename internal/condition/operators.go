package condition

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Operator represents a comparison operator used by VALUE criteria.
type Operator string

const (
	OpEquals         Operator = "EQUALS"
	OpNotEquals      Operator = "NOT_EQUALS"
	OpIn             Operator = "IN"
	OpContains       Operator = "CONTAINS"
	OpExists         Operator = "EXISTS"
	OpGreaterThan    Operator = "GREATER_THAN"
	OpLessThan       Operator = "LESS_THAN"
	OpGreaterOrEqual Operator = "GREATER_OR_EQUAL"
	OpLessOrEqual    Operator = "LESS_OR_EQUAL"
)

var knownOperators = map[Operator]struct{}{
	OpEquals: {}, OpNotEquals: {}, OpIn: {}, OpContains: {}, OpExists: {},
	OpGreaterThan: {}, OpLessThan: {}, OpGreaterOrEqual: {}, OpLessOrEqual: {},
}

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	_, ok := knownOperators[op]
	return ok
}

// ToFloat64 coerces a numeric value to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ToTime coerces a time.Time or an RFC3339 string to time.Time.
func ToTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ToSlice returns the elements of a slice or array value.
func ToSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return s, true
	case []string:
		out := make([]interface{}, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Compare applies op with the record's field value on the left and the
// configured expected value on the right. A missing field is passed as nil.
func Compare(op Operator, left, right interface{}) (bool, error) {
	switch op {
	case OpEquals:
		return Equal(left, right), nil
	case OpNotEquals:
		return !Equal(left, right), nil
	case OpIn:
		return In(left, right), nil
	case OpContains:
		return Contains(left, right), nil
	case OpExists:
		return left != nil, nil
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		if left == nil || right == nil {
			return false, nil
		}
		c, ok := order(left, right)
		if !ok {
			return false, fmt.Errorf("operator %s cannot order %T and %T", op, left, right)
		}
		switch op {
		case OpGreaterThan:
			return c > 0, nil
		case OpLessThan:
			return c < 0, nil
		case OpGreaterOrEqual:
			return c >= 0, nil
		default:
			return c <= 0, nil
		}
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

// Equal does deep-ish equality: numeric types are compared by value,
// timestamps by instant.
func Equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	lf, lok := ToFloat64(left)
	rf, rok := ToFloat64(right)
	if lok && rok {
		return math.Abs(lf-rf) < 1e-9
	}
	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			return lb == rb
		}
		return false
	}
	if lt, ok := left.(time.Time); ok {
		if rt, ok := ToTime(right); ok {
			return lt.Equal(rt)
		}
	}
	// string fallback
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

// Contains is substring match on strings and element match on lists.
func Contains(haystack, needle interface{}) bool {
	if haystack == nil {
		return false
	}
	if s, ok := haystack.(string); ok {
		return strings.Contains(s, fmt.Sprintf("%v", needle))
	}
	return HasElement(haystack, needle)
}

// HasElement reports whether list holds an element equal to elem.
func HasElement(list, elem interface{}) bool {
	items, ok := ToSlice(list)
	if !ok {
		return false
	}
	for _, it := range items {
		if Equal(it, elem) {
			return true
		}
	}
	return false
}

// In reports whether v equals any member of set.
func In(v, set interface{}) bool {
	if v == nil {
		return false
	}
	return HasElement(set, v)
}

// order returns -1, 0 or 1 comparing numbers, then timestamps, then strings.
func order(left, right interface{}) (int, bool) {
	lf, lok := ToFloat64(left)
	rf, rok := ToFloat64(right)
	if lok && rok {
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		}
		return 0, true
	}
	lt, lok := ToTime(left)
	rt, rok := ToTime(right)
	if lok && rok {
		return lt.Compare(rt), true
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return strings.Compare(ls, rs), true
	}
	return 0, false
}
