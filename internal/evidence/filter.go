package evidence

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
)

// Filter is a closed set of predicates over a Node. Adapters that push
// filters down to a backend type-switch on the concrete variants.
type Filter interface {
	Match(n *Node) bool
	String() string
	filterNode()
}

// Between bounds a timestamp field, both ends inclusive.
type Between struct {
	Field string
	From  time.Time
	To    time.Time
}

// Equals matches a field equal to Value.
type Equals struct {
	Field string
	Value interface{}
}

// Contains matches a string field containing Value as a substring, or a
// list field holding Value.
type Contains struct {
	Field string
	Value interface{}
}

// InSet matches a field whose value is one of Values.
type InSet struct {
	Field  string
	Values []interface{}
}

// HasElement matches a list field that holds Value.
type HasElement struct {
	Field string
	Value interface{}
}

// PayloadPathEquals matches a nested payload value.
type PayloadPathEquals struct {
	Path  []string
	Value interface{}
}

func (*Between) filterNode()           {}
func (*Equals) filterNode()            {}
func (*Contains) filterNode()          {}
func (*InSet) filterNode()             {}
func (*HasElement) filterNode()        {}
func (*PayloadPathEquals) filterNode() {}

func (f *Between) Match(n *Node) bool {
	v, ok := n.Resolve(f.Field)
	if !ok {
		return false
	}
	t, ok := condition.ToTime(v)
	if !ok {
		return false
	}
	return TimeRange{From: f.From, To: f.To}.Contains(t)
}

func (f *Equals) Match(n *Node) bool {
	v, ok := n.Resolve(f.Field)
	return ok && condition.Equal(v, f.Value)
}

func (f *Contains) Match(n *Node) bool {
	v, ok := n.Resolve(f.Field)
	return ok && condition.Contains(v, f.Value)
}

func (f *InSet) Match(n *Node) bool {
	v, ok := n.Resolve(f.Field)
	return ok && condition.In(v, f.Values)
}

func (f *HasElement) Match(n *Node) bool {
	v, ok := n.Resolve(f.Field)
	return ok && condition.HasElement(v, f.Value)
}

func (f *PayloadPathEquals) Match(n *Node) bool {
	v, ok := n.ResolvePath(f.Path)
	return ok && condition.Equal(v, f.Value)
}

func (f *Between) String() string {
	return fmt.Sprintf("%s between %s and %s", f.Field, f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))
}
func (f *Equals) String() string     { return fmt.Sprintf("%s == %v", f.Field, f.Value) }
func (f *Contains) String() string   { return fmt.Sprintf("%s contains %v", f.Field, f.Value) }
func (f *InSet) String() string      { return fmt.Sprintf("%s in %v", f.Field, f.Values) }
func (f *HasElement) String() string { return fmt.Sprintf("%s has %v", f.Field, f.Value) }
func (f *PayloadPathEquals) String() string {
	return fmt.Sprintf("payload.%s == %v", strings.Join(f.Path, "."), f.Value)
}

// FilterSet is a conjunction of filters.
type FilterSet []Filter

// Match reports whether n satisfies every filter.
func (s FilterSet) Match(n *Node) bool {
	for _, f := range s {
		if !f.Match(n) {
			return false
		}
	}
	return true
}

// Split separates the leading time bound (if any) from the remaining filters.
func (s FilterSet) Split() (*Between, FilterSet) {
	var bound *Between
	rest := make(FilterSet, 0, len(s))
	for _, f := range s {
		if b, ok := f.(*Between); ok && bound == nil {
			bound = b
			continue
		}
		rest = append(rest, f)
	}
	return bound, rest
}

func (s FilterSet) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return strings.Join(parts, " AND ")
}
