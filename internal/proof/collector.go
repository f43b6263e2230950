package proof

import (
	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// refKeys maps cross-reference field names to the bundle kind they feed.
var refKeys = []struct {
	key  string
	kind evidence.Kind
}{
	{"event_id", evidence.KindEvent},
	{"event_ids", evidence.KindEvent},
	{"decision_id", evidence.KindDecision},
	{"decision_ids", evidence.KindDecision},
	{"clock_id", evidence.KindClock},
	{"clock_ids", evidence.KindClock},
	{"artifact_id", evidence.KindArtifact},
	{"artifact_ids", evidence.KindArtifact},
	{"actor_id", evidence.KindActor},
	{"actor_ids", evidence.KindActor},
	{"control_id", evidence.KindControl},
	{"control_ids", evidence.KindControl},
}

type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func (s *idSet) add(id string) {
	if id == "" {
		return
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// CollectEvidence gathers node ids and cross-referenced ids from the
// fetched records. Aliases are visited in declaration order and ids keep
// first-seen order without duplicates.
func CollectEvidence(specs []catalog.NodeSpec, nodes criterion.NodeMap) EvidenceBundle {
	sets := make(map[evidence.Kind]*idSet, len(evidence.Kinds))
	for _, k := range evidence.Kinds {
		sets[k] = &idSet{seen: make(map[string]struct{})}
	}
	for _, spec := range specs {
		for i := range nodes[spec.Alias] {
			n := &nodes[spec.Alias][i]
			if s, ok := sets[n.Kind]; ok {
				s.add(n.ID)
			}
			for _, ref := range refKeys {
				collectRefs(sets[ref.kind], n.Fields[ref.key])
				collectRefs(sets[ref.kind], n.Payload[ref.key])
			}
		}
	}
	return EvidenceBundle{
		EventIDs:    sets[evidence.KindEvent].ids,
		DecisionIDs: sets[evidence.KindDecision].ids,
		ClockIDs:    sets[evidence.KindClock].ids,
		ArtifactIDs: sets[evidence.KindArtifact].ids,
		ActorIDs:    sets[evidence.KindActor].ids,
		ControlIDs:  sets[evidence.KindControl].ids,
	}.normalized()
}

func collectRefs(s *idSet, v interface{}) {
	switch ref := v.(type) {
	case nil:
	case string:
		s.add(ref)
	case []string:
		for _, id := range ref {
			s.add(id)
		}
	case []interface{}:
		for _, id := range ref {
			if str, ok := id.(string); ok {
				s.add(str)
			}
		}
	}
}

// normalized replaces nil slices with empty ones so JSON renders [].
func (b EvidenceBundle) normalized() EvidenceBundle {
	for _, p := range []*[]string{&b.EventIDs, &b.DecisionIDs, &b.ClockIDs, &b.ArtifactIDs, &b.ActorIDs, &b.ControlIDs} {
		if *p == nil {
			*p = []string{}
		}
	}
	return b
}

// CountEvidence returns the record count per alias and the total.
func CountEvidence(specs []catalog.NodeSpec, nodes criterion.NodeMap) (map[string]int, int) {
	counts := make(map[string]int, len(specs))
	total := 0
	for _, spec := range specs {
		n := len(nodes[spec.Alias])
		counts[spec.Alias] = n
		total += n
	}
	return counts, total
}
