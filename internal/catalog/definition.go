package catalog

import (
	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// Severity ranks a query for summary roll-ups.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// CriterionType tags a proof criterion.
type CriterionType string

const (
	CriterionExists       CriterionType = "EXISTS"
	CriterionCount        CriterionType = "COUNT"
	CriterionValue        CriterionType = "VALUE"
	CriterionTiming       CriterionType = "TIMING"
	CriterionRelationship CriterionType = "RELATIONSHIP"
)

// NodeSpec selects the evidence bound to Alias.
type NodeSpec struct {
	Alias    string             `json:"alias"`
	Kind     evidence.Kind      `json:"kind"`
	Filters  evidence.FilterSet `json:"-"`
	MinCount int                `json:"min_count,omitempty"` // hint only
	Optional bool               `json:"optional,omitempty"`  // informational; fetch is always attempted
}

// Criterion is one weighted test against the fetched evidence.
type Criterion struct {
	Type        CriterionType      `json:"type"`
	Weight      float64            `json:"weight"`
	Description string             `json:"description"`
	Node        string             `json:"node"`
	RelatedNode string             `json:"related_node,omitempty"`
	Field       string             `json:"field,omitempty"`
	Operator    condition.Operator `json:"operator,omitempty"`
	Expected    interface{}        `json:"expected,omitempty"`
	MinCount    int                `json:"min_count,omitempty"`
	WithinHours float64            `json:"within_hours,omitempty"`
}

// QueryDefinition is a named, regulation-tagged rule set. It is immutable
// once built; callers must not modify the values a Catalog hands out.
type QueryDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Regulation  string      `json:"regulation"`
	Articles    []string    `json:"articles"`
	Severity    Severity    `json:"severity"`
	Nodes       []NodeSpec  `json:"nodes"`
	Criteria    []Criterion `json:"criteria"`
}

// MaxScore is the sum of all criterion weights.
func (q *QueryDefinition) MaxScore() float64 {
	var total float64
	for _, c := range q.Criteria {
		total += c.Weight
	}
	return total
}

// Node returns the spec bound to alias.
func (q *QueryDefinition) Node(alias string) (NodeSpec, bool) {
	for _, n := range q.Nodes {
		if n.Alias == alias {
			return n, true
		}
	}
	return NodeSpec{}, false
}
