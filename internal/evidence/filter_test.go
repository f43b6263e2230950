package evidence_test

import (
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

var base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func sampleNode() *evidence.Node {
	return &evidence.Node{
		ID:        "evt-1",
		Kind:      evidence.KindEvent,
		Timestamp: base,
		Fields: map[string]interface{}{
			"event_type": "breach_notification",
			"tags":       []interface{}{"gdpr", "art33"},
			"summary":    "notified supervisory authority",
		},
		Payload: map[string]interface{}{
			"outcome": "passed",
			"authority": map[string]interface{}{
				"country": "IE",
			},
		},
	}
}

func TestNodeResolve(t *testing.T) {
	n := sampleNode()

	tests := []struct {
		name   string
		field  string
		want   interface{}
		wantOK bool
	}{
		{"id", "id", "evt-1", true},
		{"kind", "kind", "EVENT", true},
		{"canonical timestamp", "occurred_at", base, true},
		{"generic timestamp", "timestamp", base, true},
		{"other kind timestamp", "decided_at", nil, false},
		{"field", "event_type", "breach_notification", true},
		{"payload prefix", "payload.outcome", "passed", true},
		{"nested payload", "payload.authority.country", "IE", true},
		{"dotted without prefix", "authority.country", "IE", true},
		{"top-level payload key", "outcome", "passed", true},
		{"missing", "nope", nil, false},
		{"missing nested", "payload.authority.city", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Resolve(tt.field)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.field, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				if gt, isTime := got.(time.Time); !isTime || !gt.Equal(tt.want.(time.Time)) {
					t.Errorf("Resolve(%q) = %v, want %v", tt.field, got, tt.want)
				}
			}
		})
	}
}

func TestFilters(t *testing.T) {
	n := sampleNode()

	tests := []struct {
		name   string
		filter evidence.Filter
		want   bool
	}{
		{"between inclusive start", &evidence.Between{Field: "occurred_at", From: base, To: base.Add(time.Hour)}, true},
		{"between inclusive end", &evidence.Between{Field: "occurred_at", From: base.Add(-time.Hour), To: base}, true},
		{"between outside", &evidence.Between{Field: "occurred_at", From: base.Add(time.Second), To: base.Add(time.Hour)}, false},
		{"equals", &evidence.Equals{Field: "event_type", Value: "breach_notification"}, true},
		{"equals mismatch", &evidence.Equals{Field: "event_type", Value: "login"}, false},
		{"equals missing field", &evidence.Equals{Field: "nope", Value: "x"}, false},
		{"contains substring", &evidence.Contains{Field: "summary", Value: "supervisory"}, true},
		{"in set", &evidence.InSet{Field: "event_type", Values: []interface{}{"login", "breach_notification"}}, true},
		{"not in set", &evidence.InSet{Field: "event_type", Values: []interface{}{"login"}}, false},
		{"has element", &evidence.HasElement{Field: "tags", Value: "art33"}, true},
		{"has element missing", &evidence.HasElement{Field: "tags", Value: "dora"}, false},
		{"payload path", &evidence.PayloadPathEquals{Path: []string{"authority", "country"}, Value: "IE"}, true},
		{"payload path mismatch", &evidence.PayloadPathEquals{Path: []string{"authority", "country"}, Value: "FR"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(n); got != tt.want {
				t.Errorf("%s: Match = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilterSetSplit(t *testing.T) {
	bound := &evidence.Between{Field: "occurred_at", From: base, To: base}
	eq := &evidence.Equals{Field: "event_type", Value: "x"}
	set := evidence.FilterSet{eq, bound}

	gotBound, rest := set.Split()
	if gotBound != bound {
		t.Errorf("Split bound = %v, want %v", gotBound, bound)
	}
	if len(rest) != 1 || rest[0] != eq {
		t.Errorf("Split rest = %v, want [%v]", rest, eq)
	}
	if set.Match(sampleNode()) {
		t.Error("conjunction should fail when one filter fails")
	}
}

func TestTimeRange(t *testing.T) {
	tr := evidence.TimeRange{From: base, To: base.Add(24 * time.Hour)}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !tr.Contains(base) || !tr.Contains(tr.To) {
		t.Error("bounds must be inclusive")
	}
	if err := (evidence.TimeRange{From: tr.To, To: tr.From}).Validate(); err == nil {
		t.Error("expected error for inverted range")
	}
	if err := (evidence.TimeRange{To: base}).Validate(); err == nil {
		t.Error("expected error for missing from")
	}
}

func TestParseKind(t *testing.T) {
	k, ok := evidence.ParseKind(" decision ")
	if !ok || k != evidence.KindDecision {
		t.Errorf("ParseKind = %q, %v", k, ok)
	}
	if _, ok := evidence.ParseKind("POLICY"); ok {
		t.Error("POLICY is not a known kind")
	}
	if f, _ := evidence.KindDecision.TimestampField(); f != "decided_at" {
		t.Errorf("DECISION timestamp field = %q", f)
	}
}
