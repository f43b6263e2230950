package criterion

import (
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
)

// Registry maps criterion types to their evaluators.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[catalog.CriterionType]Evaluator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[catalog.CriterionType]Evaluator)}
}

// Default returns a Registry holding the five built-in evaluators.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Exists{})
	r.Register(Count{})
	r.Register(Value{})
	r.Register(Timing{})
	r.Register(Relationship{})
	return r
}

// Register adds an evaluator. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(e Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.evaluators[e.Type()]; exists {
		panic(fmt.Sprintf("criterion registry: duplicate type %q", e.Type()))
	}
	r.evaluators[e.Type()] = e
}

// Get returns the evaluator for the given type.
func (r *Registry) Get(t catalog.CriterionType) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.evaluators[t]
	if !ok {
		return nil, fmt.Errorf("no evaluator registered for criterion type %q", t)
	}
	return e, nil
}

// Evaluate dispatches c to its evaluator. An unregistered type evaluates
// unmet rather than failing the query.
func (r *Registry) Evaluate(c catalog.Criterion, nodes NodeMap, env Env) Outcome {
	e, err := r.Get(c.Type)
	if err != nil {
		return Outcome{Met: false, Details: fmt.Sprintf("unknown criterion type %q", c.Type)}
	}
	return e.Evaluate(c, nodes, env)
}

// Recommend renders the remediation hint for c, falling back to a generic one.
func (r *Registry) Recommend(c catalog.Criterion) string {
	e, err := r.Get(c.Type)
	if err != nil {
		return genericRecommendation(c)
	}
	return e.Recommend(c)
}

func genericRecommendation(c catalog.Criterion) string {
	return fmt.Sprintf("Address the gap in %s evidence", c.Node)
}
