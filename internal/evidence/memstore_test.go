package evidence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

func event(id, typ string, at time.Time) evidence.Node {
	return evidence.Node{
		ID:        id,
		Kind:      evidence.KindEvent,
		Timestamp: at,
		Fields:    map[string]interface{}{"event_type": typ},
	}
}

func TestMemStoreFetchNodes(t *testing.T) {
	s := evidence.NewMemStore(
		event("e1", "review", base),
		event("e2", "review", base.Add(2*time.Hour)),
		event("e3", "login", base.Add(time.Hour)),
		event("e4", "review", base.Add(-48*time.Hour)),
	)
	filters := evidence.FilterSet{
		&evidence.Between{Field: "occurred_at", From: base.Add(-time.Hour), To: base.Add(3 * time.Hour)},
		&evidence.Equals{Field: "event_type", Value: "review"},
	}

	got, err := s.FetchNodes(context.Background(), evidence.KindEvent, filters, 0)
	if err != nil {
		t.Fatalf("FetchNodes: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e1" {
		t.Fatalf("FetchNodes = %v, want [e2 e1] newest first", ids(got))
	}

	limited, err := s.FetchNodes(context.Background(), evidence.KindEvent, filters, 1)
	if err != nil {
		t.Fatalf("FetchNodes: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "e2" {
		t.Errorf("limit 1 = %v, want [e2]", ids(limited))
	}
}

func TestMemStoreErrors(t *testing.T) {
	s := evidence.NewMemStore()

	if _, err := s.FetchNodes(context.Background(), "POLICY", nil, 0); !errors.Is(err, evidence.ErrUnknownKind) {
		t.Errorf("unknown kind err = %v, want ErrUnknownKind", err)
	}

	boom := errors.New("backend down")
	s.FailKind(evidence.KindClock, boom)
	if _, err := s.FetchNodes(context.Background(), evidence.KindClock, nil, 0); !errors.Is(err, boom) {
		t.Errorf("forced failure err = %v", err)
	}
	s.FailKind(evidence.KindClock, nil)
	if _, err := s.FetchNodes(context.Background(), evidence.KindClock, nil, 0); err != nil {
		t.Errorf("cleared failure err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchNodes(ctx, evidence.KindEvent, nil, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}
}

func ids(nodes []evidence.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
