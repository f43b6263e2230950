package criterion_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func records(n int, fields map[string]interface{}) []evidence.Node {
	out := make([]evidence.Node, n)
	for i := range out {
		out[i] = evidence.Node{ID: string(rune('a' + i)), Kind: evidence.KindArtifact, Timestamp: now, Fields: fields}
	}
	return out
}

func TestBuiltinEvaluators(t *testing.T) {
	reg := criterion.Default()
	env := criterion.Env{Now: now}

	tests := []struct {
		name        string
		crit        catalog.Criterion
		nodes       criterion.NodeMap
		wantMet     bool
		wantDetails string
	}{
		{
			name:        "exists met",
			crit:        catalog.Criterion{Type: catalog.CriterionExists, Node: "records"},
			nodes:       criterion.NodeMap{"records": records(2, nil)},
			wantMet:     true,
			wantDetails: "Found 2 records record(s)",
		},
		{
			name:        "exists empty",
			crit:        catalog.Criterion{Type: catalog.CriterionExists, Node: "records"},
			nodes:       criterion.NodeMap{},
			wantMet:     false,
			wantDetails: "Found 0 records record(s)",
		},
		{
			name:        "count default min",
			crit:        catalog.Criterion{Type: catalog.CriterionCount, Node: "tests"},
			nodes:       criterion.NodeMap{"tests": records(1, nil)},
			wantMet:     true,
			wantDetails: "required 1",
		},
		{
			name:    "count at min",
			crit:    catalog.Criterion{Type: catalog.CriterionCount, Node: "tests", MinCount: 3},
			nodes:   criterion.NodeMap{"tests": records(3, nil)},
			wantMet: true,
		},
		{
			name:        "count below min",
			crit:        catalog.Criterion{Type: catalog.CriterionCount, Node: "tests", MinCount: 3},
			nodes:       criterion.NodeMap{"tests": records(2, nil)},
			wantMet:     false,
			wantDetails: "Found 2 tests record(s), required 3",
		},
		{
			name: "value one match",
			crit: catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status",
				Operator: condition.OpEquals, Expected: "approved"},
			nodes: criterion.NodeMap{"records": append(
				records(1, map[string]interface{}{"status": "draft"}),
				records(1, map[string]interface{}{"status": "approved"})...)},
			wantMet:     true,
			wantDetails: "1/2 records match status EQUALS approved",
		},
		{
			name: "value missing field equals",
			crit: catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status",
				Operator: condition.OpEquals, Expected: "approved"},
			nodes:   criterion.NodeMap{"records": records(2, nil)},
			wantMet: false,
		},
		{
			name: "value missing field not equals",
			crit: catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status",
				Operator: condition.OpNotEquals, Expected: "rejected"},
			nodes:   criterion.NodeMap{"records": records(1, nil)},
			wantMet: true,
		},
		{
			name: "value uncomparable counts as no match",
			crit: catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status",
				Operator: condition.OpGreaterThan, Expected: 3},
			nodes:   criterion.NodeMap{"records": records(1, map[string]interface{}{"status": "x"})},
			wantMet: false,
		},
		{
			name: "value no records",
			crit: catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status",
				Operator: condition.OpExists},
			nodes:       criterion.NodeMap{},
			wantMet:     false,
			wantDetails: "0/0 records",
		},
		{
			name: "timing inside window",
			crit: catalog.Criterion{Type: catalog.CriterionTiming, Node: "notes", Field: "notified_at", WithinHours: 72},
			nodes: criterion.NodeMap{"notes": records(1, map[string]interface{}{
				"notified_at": now.Add(-24 * time.Hour)})},
			wantMet:     true,
			wantDetails: "1/1 records within 72 hours",
		},
		{
			name: "timing exactly on boundary",
			crit: catalog.Criterion{Type: catalog.CriterionTiming, Node: "notes", Field: "notified_at", WithinHours: 72},
			nodes: criterion.NodeMap{"notes": records(1, map[string]interface{}{
				"notified_at": now.Add(-72 * time.Hour).Format(time.RFC3339)})},
			wantMet: true,
		},
		{
			name: "timing outside window",
			crit: catalog.Criterion{Type: catalog.CriterionTiming, Node: "notes", Field: "notified_at", WithinHours: 1.5},
			nodes: criterion.NodeMap{"notes": records(1, map[string]interface{}{
				"notified_at": now.Add(-2 * time.Hour)})},
			wantMet:     false,
			wantDetails: "0/1 records within 1.5 hours",
		},
		{
			name:    "timing missing field",
			crit:    catalog.Criterion{Type: catalog.CriterionTiming, Node: "notes", Field: "notified_at", WithinHours: 72},
			nodes:   criterion.NodeMap{"notes": records(1, nil)},
			wantMet: false,
		},
		{
			name:        "relationship met",
			crit:        catalog.Criterion{Type: catalog.CriterionRelationship, Node: "reviews", RelatedNode: "decisions"},
			nodes:       criterion.NodeMap{"reviews": records(1, nil)},
			wantMet:     true,
			wantDetails: "link to decisions not verified",
		},
		{
			name:    "relationship empty",
			crit:    catalog.Criterion{Type: catalog.CriterionRelationship, Node: "reviews", RelatedNode: "decisions"},
			nodes:   criterion.NodeMap{"decisions": records(1, nil)},
			wantMet: false,
		},
		{
			name:        "unknown type",
			crit:        catalog.Criterion{Type: "GRAPH", Node: "x"},
			nodes:       criterion.NodeMap{"x": records(1, nil)},
			wantMet:     false,
			wantDetails: `unknown criterion type "GRAPH"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Evaluate(tt.crit, tt.nodes, env)
			if got.Met != tt.wantMet {
				t.Errorf("Met = %v, want %v (details %q)", got.Met, tt.wantMet, got.Details)
			}
			if tt.wantDetails != "" && !strings.Contains(got.Details, tt.wantDetails) {
				t.Errorf("Details = %q, want it to contain %q", got.Details, tt.wantDetails)
			}
		})
	}
}

func TestRecommendations(t *testing.T) {
	reg := criterion.Default()

	tests := []struct {
		crit catalog.Criterion
		want string
	}{
		{catalog.Criterion{Type: catalog.CriterionExists, Node: "dpia"}, "Create or document dpia evidence"},
		{catalog.Criterion{Type: catalog.CriterionCount, Node: "tests", MinCount: 2}, "Ensure at least 2 tests record(s) exist"},
		{catalog.Criterion{Type: catalog.CriterionValue, Node: "records", Field: "status", Operator: condition.OpEquals, Expected: "approved"},
			"Correct field status on records records to meet the expected value (EQUALS approved)"},
		{catalog.Criterion{Type: catalog.CriterionTiming, Node: "notes", WithinHours: 72}, "Perform the notes activity within the required 72-hour window"},
		{catalog.Criterion{Type: catalog.CriterionRelationship, Node: "reviews", RelatedNode: "decisions"}, "Link reviews evidence to decisions evidence"},
		{catalog.Criterion{Type: catalog.CriterionRelationship, Node: "reviews"}, "Address the gap in reviews evidence"},
		{catalog.Criterion{Type: "GRAPH", Node: "x"}, "Address the gap in x evidence"},
	}
	for _, tt := range tests {
		if got := reg.Recommend(tt.crit); got != tt.want {
			t.Errorf("Recommend(%s) = %q, want %q", tt.crit.Type, got, tt.want)
		}
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg := criterion.NewRegistry()
	reg.Register(criterion.Exists{})
	reg.Register(criterion.Exists{})
}
