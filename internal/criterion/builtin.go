package criterion

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
)

// Exists is met when the alias holds at least one record.
type Exists struct{}

func (Exists) Type() catalog.CriterionType { return catalog.CriterionExists }

func (Exists) Evaluate(c catalog.Criterion, nodes NodeMap, _ Env) Outcome {
	n := len(nodes[c.Node])
	return Outcome{
		Met:     n > 0,
		Details: fmt.Sprintf("Found %d %s record(s)", n, c.Node),
	}
}

func (Exists) Recommend(c catalog.Criterion) string {
	return fmt.Sprintf("Create or document %s evidence", c.Node)
}

// Count is met when the alias holds at least MinCount records (default 1).
type Count struct{}

func (Count) Type() catalog.CriterionType { return catalog.CriterionCount }

func (Count) Evaluate(c catalog.Criterion, nodes NodeMap, _ Env) Outcome {
	n := len(nodes[c.Node])
	need := minCount(c)
	return Outcome{
		Met:     n >= need,
		Details: fmt.Sprintf("Found %d %s record(s), required %d", n, c.Node, need),
	}
}

func (Count) Recommend(c catalog.Criterion) string {
	return fmt.Sprintf("Ensure at least %d %s record(s) exist", minCount(c), c.Node)
}

func minCount(c catalog.Criterion) int {
	if c.MinCount <= 0 {
		return 1
	}
	return c.MinCount
}

// Value is met when at least one record satisfies Field Operator Expected.
type Value struct{}

func (Value) Type() catalog.CriterionType { return catalog.CriterionValue }

func (Value) Evaluate(c catalog.Criterion, nodes NodeMap, _ Env) Outcome {
	records := nodes[c.Node]
	matched := 0
	for i := range records {
		v, _ := records[i].Resolve(c.Field)
		ok, err := condition.Compare(c.Operator, v, c.Expected)
		if err == nil && ok {
			matched++
		}
	}
	return Outcome{
		Met:     matched > 0,
		Details: fmt.Sprintf("%d/%d records match %s %s %v", matched, len(records), c.Field, c.Operator, c.Expected),
	}
}

func (Value) Recommend(c catalog.Criterion) string {
	return fmt.Sprintf("Correct field %s on %s records to meet the expected value (%s %v)", c.Field, c.Node, c.Operator, c.Expected)
}

// Timing is met when at least one record's Field lies within the last
// WithinHours hours of env.Now. The window start is inclusive.
type Timing struct{}

func (Timing) Type() catalog.CriterionType { return catalog.CriterionTiming }

func (Timing) Evaluate(c catalog.Criterion, nodes NodeMap, env Env) Outcome {
	records := nodes[c.Node]
	cutoff := env.Now.Add(-hours(c.WithinHours))
	within := 0
	for i := range records {
		v, ok := records[i].Resolve(c.Field)
		if !ok {
			continue
		}
		ts, ok := condition.ToTime(v)
		if ok && !ts.Before(cutoff) {
			within++
		}
	}
	return Outcome{
		Met:     within > 0,
		Details: fmt.Sprintf("%d/%d records within %s hours", within, len(records), formatHours(c.WithinHours)),
	}
}

func (Timing) Recommend(c catalog.Criterion) string {
	return fmt.Sprintf("Perform the %s activity within the required %s-hour window", c.Node, formatHours(c.WithinHours))
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// Relationship stands in for a graph-edge check between Node and
// RelatedNode. It is met when Node is non-empty; the edge itself is not
// verified because the evidence store exposes no edge query.
type Relationship struct{}

func (Relationship) Type() catalog.CriterionType { return catalog.CriterionRelationship }

func (Relationship) Evaluate(c catalog.Criterion, nodes NodeMap, _ Env) Outcome {
	n := len(nodes[c.Node])
	details := fmt.Sprintf("Found %d %s record(s)", n, c.Node)
	if c.RelatedNode != "" {
		details += fmt.Sprintf("; link to %s not verified", c.RelatedNode)
	}
	return Outcome{Met: n > 0, Details: details}
}

func (Relationship) Recommend(c catalog.Criterion) string {
	if c.RelatedNode != "" {
		return fmt.Sprintf("Link %s evidence to %s evidence", c.Node, c.RelatedNode)
	}
	return genericRecommendation(c)
}
