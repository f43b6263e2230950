package condition_test

import (
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
)

func TestCompare(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		op    condition.Operator
		left  interface{}
		right interface{}
		want  bool
	}{
		// equality
		{"string equals", condition.OpEquals, "approved", "approved", true},
		{"string not equal", condition.OpEquals, "draft", "approved", false},
		{"int equals float", condition.OpEquals, 3, 3.0, true},
		{"bool equals", condition.OpEquals, true, true, true},
		{"bool vs string", condition.OpEquals, true, "true", false},
		{"time equals rfc3339", condition.OpEquals, t0, "2026-03-01T12:00:00Z", true},
		{"missing equals", condition.OpEquals, nil, "approved", false},
		{"not equals", condition.OpNotEquals, "draft", "approved", true},
		{"missing not equals", condition.OpNotEquals, nil, "approved", true},

		// membership
		{"in list", condition.OpIn, "mfa", []interface{}{"mfa", "sso"}, true},
		{"not in list", condition.OpIn, "password", []interface{}{"mfa", "sso"}, false},
		{"in numeric", condition.OpIn, 2, []interface{}{1.0, 2.0}, true},
		{"missing in", condition.OpIn, nil, []interface{}{"mfa"}, false},
		{"contains substring", condition.OpContains, "credit-score-v4", "score", true},
		{"contains element", condition.OpContains, []interface{}{"a", "b"}, "b", true},
		{"contains missing", condition.OpContains, nil, "b", false},
		{"exists", condition.OpExists, "x", nil, true},
		{"not exists", condition.OpExists, nil, nil, false},

		// ordering
		{"gt", condition.OpGreaterThan, 10, 5, true},
		{"gt equal", condition.OpGreaterThan, 5, 5, false},
		{"gte equal", condition.OpGreaterOrEqual, 5, 5.0, true},
		{"lt", condition.OpLessThan, 1.5, 2, true},
		{"lte", condition.OpLessOrEqual, 2, 2, true},
		{"gt time", condition.OpGreaterThan, t0.Add(time.Hour), t0, true},
		{"lt string", condition.OpLessThan, "a", "b", true},
		{"gt missing", condition.OpGreaterThan, nil, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := condition.Compare(tt.op, tt.left, tt.right)
			if err != nil {
				t.Fatalf("Compare(%s, %v, %v) unexpected error: %v", tt.op, tt.left, tt.right, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompareErrors(t *testing.T) {
	if _, err := condition.Compare("MATCHES", "a", "b"); err == nil {
		t.Error("expected error for unknown operator")
	}
	if _, err := condition.Compare(condition.OpGreaterThan, "a", 1); err == nil {
		t.Error("expected error ordering string against number")
	}
}

func TestOperatorValid(t *testing.T) {
	for _, op := range []condition.Operator{condition.OpEquals, condition.OpIn, condition.OpLessOrEqual} {
		if !op.Valid() {
			t.Errorf("%s should be valid", op)
		}
	}
	if condition.Operator("equals").Valid() {
		t.Error("operators are case sensitive")
	}
}

func TestToSlice(t *testing.T) {
	got, ok := condition.ToSlice([]int{1, 2, 3})
	if !ok || len(got) != 3 || got[2] != 3 {
		t.Errorf("ToSlice([]int) = %v, %v", got, ok)
	}
	if _, ok := condition.ToSlice("abc"); ok {
		t.Error("a string is not a slice")
	}
}
