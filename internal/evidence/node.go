package evidence

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the six evidence node kinds.
type Kind string

const (
	KindEvent    Kind = "EVENT"
	KindDecision Kind = "DECISION"
	KindClock    Kind = "CLOCK"
	KindActor    Kind = "ACTOR"
	KindControl  Kind = "CONTROL"
	KindArtifact Kind = "ARTIFACT"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{KindEvent, KindDecision, KindClock, KindActor, KindControl, KindArtifact}

var timestampFields = map[Kind]string{
	KindEvent:    "occurred_at",
	KindDecision: "decided_at",
	KindClock:    "created_at",
	KindActor:    "created_at",
	KindControl:  "created_at",
	KindArtifact: "created_at",
}

// ParseKind normalises s and reports whether it names a known kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := timestampFields[k]
	return k, ok
}

// TimestampField returns the canonical timestamp field name for k.
// Unknown kinds have none.
func (k Kind) TimestampField() (string, bool) {
	f, ok := timestampFields[k]
	return f, ok
}

// Node is one immutable evidence record.
type Node struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	Timestamp time.Time              `json:"timestamp"` // canonical timestamp for the kind
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Resolve looks up a named field on the node. Lookup order: id, kind,
// the canonical timestamp name, Fields, then payload. A dotted
// "payload.a.b" name walks the payload map.
func (n *Node) Resolve(name string) (interface{}, bool) {
	switch name {
	case "":
		return nil, false
	case "id":
		return n.ID, true
	case "kind":
		return string(n.Kind), true
	case "timestamp":
		return n.Timestamp, !n.Timestamp.IsZero()
	}
	if f, ok := n.Kind.TimestampField(); ok && f == name {
		return n.Timestamp, !n.Timestamp.IsZero()
	}
	if v, ok := n.Fields[name]; ok {
		return v, true
	}
	if rest, ok := strings.CutPrefix(name, "payload."); ok {
		return n.ResolvePath(strings.Split(rest, "."))
	}
	if strings.Contains(name, ".") {
		return n.ResolvePath(strings.Split(name, "."))
	}
	v, ok := n.Payload[name]
	return v, ok
}

// ResolvePath walks path into the payload map.
func (n *Node) ResolvePath(path []string) (interface{}, bool) {
	if n.Payload == nil {
		return nil, false
	}
	return resolveMap(n.Payload, path)
}

func resolveMap(m map[string]interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	val, ok := m[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return val, true
	}
	sub, ok := val.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return resolveMap(sub, path[1:])
}

// TimeRange is an inclusive [From, To] window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects inverted or empty ranges.
func (r TimeRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("time range: from and to are required")
	}
	if r.From.After(r.To) {
		return fmt.Errorf("time range: from %s is after to %s", r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies within the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
