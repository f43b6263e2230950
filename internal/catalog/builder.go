package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/proofengine/internal/condition"
	"github.com/gyaneshwarpardhi/proofengine/internal/config"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// Build compiles a validated CatalogConfig into a Catalog.
// All filters are compiled into evidence.Filter variants here; no raw
// parameter maps reach the fetcher.
func Build(cfg *config.CatalogConfig) (*Catalog, error) {
	defs := make([]QueryDefinition, 0, len(cfg.Queries))
	for _, q := range cfg.Queries {
		if q.Disabled {
			continue
		}
		d, err := buildQuery(q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.ID, err)
		}
		defs = append(defs, d)
	}
	return New(defs...)
}

func buildQuery(q config.QueryDef) (QueryDefinition, error) {
	d := QueryDefinition{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		Regulation:  q.Regulation,
		Articles:    append([]string(nil), q.Articles...),
		Severity:    Severity(strings.ToUpper(q.Severity)),
	}
	if d.Severity == "" {
		d.Severity = SeverityMedium
	}
	for _, n := range q.Nodes {
		kind, ok := evidence.ParseKind(n.Kind)
		if !ok {
			return QueryDefinition{}, fmt.Errorf("node %s: unknown kind %q", n.Alias, n.Kind)
		}
		filters, err := CompileFilters(n.Filters)
		if err != nil {
			return QueryDefinition{}, fmt.Errorf("node %s: %w", n.Alias, err)
		}
		d.Nodes = append(d.Nodes, NodeSpec{
			Alias:    n.Alias,
			Kind:     kind,
			Filters:  filters,
			MinCount: n.MinCount,
			Optional: n.Optional,
		})
	}
	for i, c := range q.Criteria {
		crit, err := buildCriterion(c)
		if err != nil {
			return QueryDefinition{}, fmt.Errorf("criteria[%d]: %w", i, err)
		}
		if _, ok := d.Node(crit.Node); !ok {
			return QueryDefinition{}, fmt.Errorf("criteria[%d]: node %q is not declared", i, crit.Node)
		}
		if crit.RelatedNode != "" {
			if _, ok := d.Node(crit.RelatedNode); !ok {
				return QueryDefinition{}, fmt.Errorf("criteria[%d]: related_node %q is not declared", i, crit.RelatedNode)
			}
		}
		d.Criteria = append(d.Criteria, crit)
	}
	return d, nil
}

func buildCriterion(c config.CriterionDef) (Criterion, error) {
	crit := Criterion{
		Type:        CriterionType(strings.ToUpper(c.Type)),
		Weight:      c.Weight,
		Description: c.Description,
		Node:        c.Node,
		RelatedNode: c.RelatedNode,
		Field:       c.Field,
		Operator:    condition.Operator(strings.ToUpper(c.Operator)),
		Expected:    c.Value,
		MinCount:    c.MinCount,
		WithinHours: c.WithinHours,
	}
	if crit.Weight <= 0 {
		return Criterion{}, fmt.Errorf("weight must be positive, got %v", c.Weight)
	}
	switch crit.Type {
	case CriterionExists, CriterionCount, CriterionRelationship:
	case CriterionValue:
		if crit.Field == "" {
			return Criterion{}, fmt.Errorf("VALUE criterion requires field")
		}
		if !crit.Operator.Valid() {
			return Criterion{}, fmt.Errorf("VALUE criterion: unknown operator %q", c.Operator)
		}
		if crit.Operator == condition.OpIn {
			if _, ok := condition.ToSlice(crit.Expected); !ok {
				return Criterion{}, fmt.Errorf("VALUE criterion: operator IN requires a list value")
			}
		}
	case CriterionTiming:
		if crit.Field == "" {
			return Criterion{}, fmt.Errorf("TIMING criterion requires field")
		}
		if crit.WithinHours <= 0 {
			return Criterion{}, fmt.Errorf("TIMING criterion requires positive within_hours")
		}
	default:
		return Criterion{}, fmt.Errorf("unknown criterion type %q", c.Type)
	}
	return crit, nil
}

// CompileFilters turns a raw filter map into a FilterSet. Keys are
// compiled in sorted order so the result is deterministic.
//
// Value shapes:
//   - scalar                → Equals (PayloadPathEquals for "payload.a.b" keys)
//   - {contains: v}         → Contains
//   - {in: [v1, v2]}        → InSet
//   - {has: v}              → HasElement
func CompileFilters(raw map[string]interface{}) (evidence.FilterSet, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make(evidence.FilterSet, 0, len(keys))
	for _, field := range keys {
		f, err := compileFilter(field, raw[field])
		if err != nil {
			return nil, err
		}
		set = append(set, f)
	}
	return set, nil
}

func compileFilter(field string, v interface{}) (evidence.Filter, error) {
	if field == "" {
		return nil, fmt.Errorf("filter with empty field name")
	}
	switch shape := v.(type) {
	case map[string]interface{}:
		if len(shape) != 1 {
			return nil, fmt.Errorf("filter %s: expected exactly one of contains/in/has, got %d keys", field, len(shape))
		}
		for op, arg := range shape {
			switch strings.ToLower(op) {
			case "contains":
				return &evidence.Contains{Field: field, Value: arg}, nil
			case "in":
				values, ok := condition.ToSlice(arg)
				if !ok {
					return nil, fmt.Errorf("filter %s: in requires a list, got %T", field, arg)
				}
				return &evidence.InSet{Field: field, Values: values}, nil
			case "has":
				return &evidence.HasElement{Field: field, Value: arg}, nil
			default:
				return nil, fmt.Errorf("filter %s: unsupported operator %q", field, op)
			}
		}
	case []interface{}:
		return nil, fmt.Errorf("filter %s: list values need an explicit {in: [...]}", field)
	}
	if rest, ok := strings.CutPrefix(field, "payload."); ok {
		return &evidence.PayloadPathEquals{Path: strings.Split(rest, "."), Value: v}, nil
	}
	return &evidence.Equals{Field: field, Value: v}, nil
}
