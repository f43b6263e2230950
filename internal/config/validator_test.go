package config_test

import (
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/proofengine/internal/config"
)

func validConfig() *config.CatalogConfig {
	return &config.CatalogConfig{
		Version: "1",
		Engine:  config.DefaultEngineConf(),
		Queries: []config.QueryDef{
			{
				ID:         "q1",
				Name:       "Oversight",
				Regulation: "GDPR",
				Severity:   "CRITICAL",
				Nodes: []config.NodeDef{
					{Alias: "decisions", Kind: "DECISION"},
					{Alias: "reviews", Kind: "event"},
				},
				Criteria: []config.CriterionDef{
					{Type: "EXISTS", Node: "decisions", Weight: 50, Description: "decisions exist"},
					{Type: "RELATIONSHIP", Node: "reviews", RelatedNode: "decisions", Weight: 50, Description: "linked"},
				},
			},
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := config.Validate(validConfig()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.CatalogConfig)
		wantErr string
	}{
		{
			name:    "missing version",
			mutate:  func(c *config.CatalogConfig) { c.Version = "" },
			wantErr: "Version: is required",
		},
		{
			name: "duplicate query id",
			mutate: func(c *config.CatalogConfig) {
				c.Queries = append(c.Queries, c.Queries[0])
			},
			wantErr: `duplicate query id "q1"`,
		},
		{
			name:    "unknown kind",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Nodes[0].Kind = "POLICY" },
			wantErr: `unknown kind "POLICY"`,
		},
		{
			name: "duplicate alias",
			mutate: func(c *config.CatalogConfig) {
				c.Queries[0].Nodes = append(c.Queries[0].Nodes, config.NodeDef{Alias: "reviews", Kind: "EVENT"})
			},
			wantErr: `duplicate alias "reviews"`,
		},
		{
			name:    "undeclared node",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Criteria[0].Node = "ghosts" },
			wantErr: `node "ghosts" is not declared`,
		},
		{
			name:    "undeclared related node",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Criteria[1].RelatedNode = "ghosts" },
			wantErr: `related_node "ghosts" is not declared`,
		},
		{
			name:    "missing criterion node",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Criteria[0].Node = "" },
			wantErr: "node is required",
		},
		{
			name:    "zero weight",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Criteria[0].Weight = 0 },
			wantErr: "must be greater than 0",
		},
		{
			name:    "no criteria",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Criteria = nil },
			wantErr: "Criteria: is required",
		},
		{
			name:    "bad severity",
			mutate:  func(c *config.CatalogConfig) { c.Queries[0].Severity = "URGENT" },
			wantErr: "URGENT is not one of",
		},
		{
			name: "inverted thresholds",
			mutate: func(c *config.CatalogConfig) {
				c.Engine.ProvenThreshold = 30
				c.Engine.PartialThreshold = 60
			},
			wantErr: "partial_threshold 60 exceeds proven_threshold 30",
		},
		{
			name:    "no summary workers",
			mutate:  func(c *config.CatalogConfig) { c.Engine.SummaryWorkers = 0 },
			wantErr: "SummaryWorkers: failed gte=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAggregates(t *testing.T) {
	cfg := validConfig()
	cfg.Version = ""
	cfg.Queries[0].Nodes[0].Kind = "POLICY"
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n  - "); n != 2 {
		t.Errorf("expected 2 aggregated errors, got %d: %v", n, err)
	}
}
