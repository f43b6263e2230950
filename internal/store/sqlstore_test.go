package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/store"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *store.SqlStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "nested", "evidence.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *store.SqlStore) {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(),
		evidence.Node{ID: "d1", Kind: evidence.KindDecision, Timestamp: base,
			Fields: map[string]interface{}{"decision_type": "automated", "score": 0.82}},
		evidence.Node{ID: "d2", Kind: evidence.KindDecision, Timestamp: base.Add(2 * time.Hour),
			Fields:  map[string]interface{}{"decision_type": "automated"},
			Payload: map[string]interface{}{"model": map[string]interface{}{"name": "credit-v4"}}},
		evidence.Node{ID: "d3", Kind: evidence.KindDecision, Timestamp: base.Add(time.Hour),
			Fields: map[string]interface{}{"decision_type": "manual"}},
		evidence.Node{ID: "d4", Kind: evidence.KindDecision, Timestamp: base.AddDate(0, -2, 0),
			Fields: map[string]interface{}{"decision_type": "automated"}},
		evidence.Node{ID: "e1", Kind: evidence.KindEvent, Timestamp: base},
	))
}

func window() *evidence.Between {
	return &evidence.Between{Field: "decided_at", From: base.Add(-time.Hour), To: base.Add(3 * time.Hour)}
}

func nodeIDs(nodes []evidence.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestSqlStoreFetchNodes(t *testing.T) {
	s := openStore(t)
	seed(t, s)
	ctx := context.Background()

	got, err := s.FetchNodes(ctx, evidence.KindDecision, evidence.FilterSet{window()}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d2", "d3", "d1"}, nodeIDs(got), "newest first within the window")

	got, err = s.FetchNodes(ctx, evidence.KindDecision, evidence.FilterSet{
		window(),
		&evidence.Equals{Field: "decision_type", Value: "automated"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d2", "d1"}, nodeIDs(got))

	got, err = s.FetchNodes(ctx, evidence.KindDecision, evidence.FilterSet{
		&evidence.PayloadPathEquals{Path: []string{"model", "name"}, Value: "credit-v4"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, nodeIDs(got))

	got, err = s.FetchNodes(ctx, evidence.KindDecision, evidence.FilterSet{
		&evidence.Equals{Field: "score", Value: 0.82},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, nodeIDs(got))

	got, err = s.FetchNodes(ctx, evidence.KindDecision, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d2", "d3"}, nodeIDs(got), "limit keeps the most recent")

	got, err = s.FetchNodes(ctx, evidence.KindClock, nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSqlStoreRoundTrip(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	got, err := s.FetchNodes(context.Background(), evidence.KindDecision, evidence.FilterSet{
		&evidence.Equals{Field: "id", Value: "d2"},
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	n := got[0]
	assert.True(t, base.Add(2*time.Hour).Equal(n.Timestamp))
	assert.Equal(t, evidence.KindDecision, n.Kind)
	v, ok := n.Resolve("payload.model.name")
	require.True(t, ok)
	assert.Equal(t, "credit-v4", v)
}

func TestSqlStoreInsertUpsertsAndGeneratesIDs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	seed(t, s)

	require.NoError(t, s.Insert(ctx,
		evidence.Node{ID: "d1", Kind: evidence.KindDecision, Timestamp: base,
			Fields: map[string]interface{}{"decision_type": "manual"}},
		evidence.Node{Kind: evidence.KindActor, Timestamp: base},
	))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	got, err := s.FetchNodes(ctx, evidence.KindDecision, evidence.FilterSet{
		&evidence.Equals{Field: "decision_type", Value: "manual"},
	}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1", "d3"}, nodeIDs(got))

	actors, err := s.FetchNodes(ctx, evidence.KindActor, nil, 0)
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.NotEmpty(t, actors[0].ID)
}

func TestSqlStoreUnknownKind(t *testing.T) {
	s := openStore(t)
	_, err := s.FetchNodes(context.Background(), "POLICY", nil, 0)
	assert.True(t, errors.Is(err, evidence.ErrUnknownKind))

	err = s.Insert(context.Background(), evidence.Node{ID: "x", Kind: "POLICY"})
	assert.ErrorIs(t, err, evidence.ErrUnknownKind)
}

func TestSqlStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	seed(t, s)
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
