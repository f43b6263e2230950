package evidence

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store. It is used in tests and for small
// fixture-backed deployments.
type MemStore struct {
	mu     sync.RWMutex
	byKind map[Kind][]Node
	// Failures forces FetchNodes to return the mapped error for a kind.
	failures map[Kind]error
}

// NewMemStore returns a MemStore seeded with nodes.
func NewMemStore(nodes ...Node) *MemStore {
	s := &MemStore{
		byKind:   make(map[Kind][]Node),
		failures: make(map[Kind]error),
	}
	s.Add(nodes...)
	return s
}

// Add appends nodes. Nodes of an unknown kind are still stored, but
// FetchNodes rejects unknown kinds.
func (s *MemStore) Add(nodes ...Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.byKind[n.Kind] = append(s.byKind[n.Kind], n)
	}
}

// FailKind makes every fetch of kind return err (nil clears it).
func (s *MemStore) FailKind(kind Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, kind)
		return
	}
	s.failures[kind] = err
}

// FetchNodes implements Store.
func (s *MemStore) FetchNodes(ctx context.Context, kind Kind, filters FilterSet, limit int) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := kind.TimestampField(); !ok {
		return nil, fmt.Errorf("memstore: %w %q", ErrUnknownKind, kind)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[kind]; err != nil {
		return nil, err
	}

	var out []Node
	for i := range s.byKind[kind] {
		n := s.byKind[kind][i]
		if filters.Match(&n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
