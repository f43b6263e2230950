package criterion

import (
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// Outcome is the result of evaluating one criterion.
type Outcome struct {
	Met     bool   `json:"met"`
	Details string `json:"details"`
}

// Env carries evaluation-time inputs that are not part of the evidence.
type Env struct {
	Now time.Time
}

// NodeMap maps a node alias to its fetched records.
type NodeMap map[string][]evidence.Node

// Evaluator is implemented by one strategy per criterion type.
// Implementations must be pure: no I/O, no state between calls.
type Evaluator interface {
	// Type returns the criterion type this evaluator is registered under.
	Type() catalog.CriterionType
	// Evaluate tests c against the fetched nodes.
	Evaluate(c catalog.Criterion, nodes NodeMap, env Env) Outcome
	// Recommend renders a remediation hint for an unmet c.
	Recommend(c catalog.Criterion) string
}
